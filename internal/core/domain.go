package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLength is measured in characters, not bytes.
const MaxDescriptionLength = 500

// Person is one of the two household members.
type Person string

const (
	PersonMino  Person = "mino"
	PersonAmbra Person = "ambra"
)

// Persons returns the household members in display order.
func Persons() []Person {
	return []Person{PersonMino, PersonAmbra}
}

// ParsePerson accepts a member identifier, case-insensitively.
func ParsePerson(s string) (Person, error) {
	switch p := Person(strings.ToLower(strings.TrimSpace(s))); p {
	case PersonMino, PersonAmbra:
		return p, nil
	default:
		return "", ErrInvalidPerson
	}
}

func (p Person) Valid() bool {
	return p == PersonMino || p == PersonAmbra
}

// Label is the display name.
func (p Person) Label() string {
	switch p {
	case PersonMino:
		return "Mino"
	case PersonAmbra:
		return "Ambra"
	}
	return string(p)
}

// Other returns the other household member.
func (p Person) Other() Person {
	if p == PersonMino {
		return PersonAmbra
	}
	return PersonMino
}

// Category is a member of the closed expense taxonomy.
type Category string

const (
	CategoryGroceries Category = "spesa"
	CategoryUtilities Category = "bollette"
	CategoryHome      Category = "casa"
	CategoryTransport Category = "trasporti"
	CategoryHealth    Category = "salute"
	CategoryLeisure   Category = "svago"
	CategoryOther     Category = "altro"
)

// CategoryInfo carries the display attributes of a category.
type CategoryInfo struct {
	ID    Category `json:"id"`
	Label string   `json:"label"`
	Emoji string   `json:"emoji"`
	Color string   `json:"color"`
}

var categories = []CategoryInfo{
	{ID: CategoryGroceries, Label: "Spesa", Emoji: "🛒", Color: "#00cec9"},
	{ID: CategoryUtilities, Label: "Bollette", Emoji: "💡", Color: "#fdcb6e"},
	{ID: CategoryHome, Label: "Casa", Emoji: "🏠", Color: "#6c5ce7"},
	{ID: CategoryTransport, Label: "Trasporti", Emoji: "🚗", Color: "#e17055"},
	{ID: CategoryHealth, Label: "Salute", Emoji: "💊", Color: "#00b894"},
	{ID: CategoryLeisure, Label: "Svago", Emoji: "🎮", Color: "#fd79a8"},
	{ID: CategoryOther, Label: "Altro", Emoji: "📦", Color: "#636e72"},
}

// Categories returns the taxonomy in display order. The slice is a copy.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory is the strict form used for filters.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Rank() < 0 {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// NormalizeCategory maps empty or unknown values to CategoryOther.
func NormalizeCategory(s string) Category {
	c, err := ParseCategory(s)
	if err != nil {
		return CategoryOther
	}
	return c
}

// Rank is the position in the taxonomy, -1 when unknown.
func (c Category) Rank() int {
	for i, info := range categories {
		if info.ID == c {
			return i
		}
	}
	return -1
}

// Info returns the display attributes, falling back to CategoryOther.
func (c Category) Info() CategoryInfo {
	if i := c.Rank(); i >= 0 {
		return categories[i]
	}
	return categories[len(categories)-1]
}

// Expense is the only persisted entity.
type Expense struct {
	ID          int64     `json:"id"`
	Amount      Money     `json:"amount"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Person      Person    `json:"person"`
	Date        Date      `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if !e.Person.Valid() {
		return Invalid("person", ErrInvalidPerson)
	}
	if e.Category.Rank() < 0 {
		return Invalid("category", ErrInvalidCategory)
	}
	if err := e.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	return nil
}

// NewExpense is the input of an add operation. Category and Date are
// optional; Person is raw so that the error names the field.
type NewExpense struct {
	Amount      Money  `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Person      string `json:"person"`
	Date        Date   `json:"date"`
}

// Normalize coerces the category and applies the default date, then
// validates the result. The description is kept as given.
func (n NewExpense) Normalize(today Date) (Expense, error) {
	e := Expense{
		Amount:      n.Amount,
		Description: n.Description,
		Category:    NormalizeCategory(n.Category),
		Date:        n.Date,
	}
	if strings.TrimSpace(n.Person) == "" {
		return Expense{}, Invalid("person", ErrInvalidPerson)
	}
	p, err := ParsePerson(n.Person)
	if err != nil {
		return Expense{}, Invalid("person", err)
	}
	e.Person = p
	if e.Date.IsEmpty() {
		e.Date = today
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return Invalid("description", ErrEmptyDescription)
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		return Invalid("description", ErrDescriptionTooLong)
	}
	return nil
}

// ExpenseFilter narrows a list query. Zero values mean "no constraint";
// all set fields must match.
type ExpenseFilter struct {
	Person   Person
	Category Category
	Month    MonthKey
	Limit    int
}

// Match reports whether e satisfies every set field of f.
func (f ExpenseFilter) Match(e Expense) bool {
	if f.Person != "" && e.Person != f.Person {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Month != "" && !f.Month.Contains(e.Date) {
		return false
	}
	return true
}

// ParseExpenseFilter builds a filter from raw query values. Unknown person,
// category or month values are validation errors.
func ParseExpenseFilter(person, category, month string, limit int) (ExpenseFilter, error) {
	var f ExpenseFilter
	if strings.TrimSpace(person) != "" {
		p, err := ParsePerson(person)
		if err != nil {
			return f, Invalid("person", err)
		}
		f.Person = p
	}
	if strings.TrimSpace(category) != "" {
		c, err := ParseCategory(category)
		if err != nil {
			return f, Invalid("category", err)
		}
		f.Category = c
	}
	m, err := ParseMonthKey(month)
	if err != nil {
		return f, Invalid("month", err)
	}
	f.Month = m
	if limit < 0 {
		return f, Invalid("limit", ErrInvalidLimit)
	}
	f.Limit = limit
	return f, nil
}

// LessExpense orders newest first: date desc, created_at desc, id desc.
func LessExpense(a, b Expense) bool {
	if !a.Date.Equal(b.Date.Time) {
		return a.Date.After(b.Date.Time)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
