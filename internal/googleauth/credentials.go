// Package googleauth resolves service account credentials shared by the
// Sheets and Vision clients.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
)

var ErrMissingCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")

// ServiceAccountJSON returns the inline JSON when set, otherwise the content
// of file, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func ServiceAccountJSON(ctx context.Context, inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline JSON credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read credentials file", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, ErrMissingCredentials
	}
}

// ClientOptions builds the options for a Google API service scoped to scopes.
func ClientOptions(ctx context.Context, inline, file string, scopes ...string) ([]goption.ClientOption, error) {
	creds, err := ServiceAccountJSON(ctx, inline, file)
	if err != nil {
		return nil, err
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(scopes...),
	}, nil
}
