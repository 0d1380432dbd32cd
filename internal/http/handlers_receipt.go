package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"conti/internal/log"
	"conti/internal/receipt"
)

// multipartOverhead leaves room for form boundaries and other fields.
const multipartOverhead = 1 << 20

// handleScanReceipt accepts either a multipart photo in "image", which goes
// through OCR, or already recognized text in "text", which is only
// extracted.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.scanImage(w, r)
		return
	}

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	text := p.Get("text")
	if text == "" {
		BadRequestError("Provide an image or the receipt text").Write(w)
		return
	}
	NewJSONResponse().Body(receipt.Scan{Result: receipt.Extract(text), RawText: text}).Write(w)
}

func (s *Server) scanImage(w http.ResponseWriter, r *http.Request) {
	if !s.scanner.Enabled() {
		ServiceUnavailableError("Receipt scanning is not configured").Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, receipt.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(receipt.MaxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "Image too large (max 10 MB)").Write(w)
			return
		}
		BadRequestError("Invalid multipart body").Write(w)
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, _, err := r.FormFile("image")
	if err != nil {
		BadRequestError("Missing image").Write(w)
		return
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, receipt.MaxImageBytes+1))
	if err != nil {
		BadRequestError("Invalid image").Write(w)
		return
	}

	scan, err := s.scanner.Scan(r.Context(), image)
	switch {
	case err == nil:
		NewJSONResponse().Body(scan).Write(w)
	case errors.Is(err, receipt.ErrEmptyImage):
		BadRequestError("Missing image").Write(w)
	case errors.Is(err, receipt.ErrImageTooLarge):
		ErrorResponse(http.StatusRequestEntityTooLarge, "Image too large (max 10 MB)").Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Receipt scan failed",
			log.FieldError, err,
			"image_bytes", len(image))
		ErrorResponse(http.StatusBadGateway, "Failed to scan receipt").Write(w)
	}
}
