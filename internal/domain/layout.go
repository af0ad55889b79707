package domain

import "time"

// LayoutType selects which singleton layout document a request addresses.
type LayoutType string

const (
	LayoutBanner     LayoutType = "banner"
	LayoutFAQ        LayoutType = "faq"
	LayoutCategories LayoutType = "categories"
)

// ParseLayoutType validates a raw layout type.
func ParseLayoutType(raw string) (LayoutType, bool) {
	switch LayoutType(raw) {
	case LayoutBanner, LayoutFAQ, LayoutCategories:
		return LayoutType(raw), true
	}
	return "", false
}

// Banner is the landing-page hero block.
type Banner struct {
	Image    Asset  `json:"image"`
	Title    string `json:"title"`
	SubTitle string `json:"sub_title"`
}

// FAQItem is one question/answer pair.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Category is a catalog category label.
type Category struct {
	Title string `json:"title"`
}

// Layout is a per-type singleton document. Only the field matching Type is
// populated.
type Layout struct {
	ID         int64      `json:"id"`
	Type       LayoutType `json:"type"`
	Banner     *Banner    `json:"banner,omitempty"`
	FAQ        []FAQItem  `json:"faq,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
