package models

// SearchRequest is the payload for GET /api/v1/inserate and POST /api/v1/search.
//
// Optional numeric filters are pointers so that "absent" and "zero" stay
// distinguishable: a min_price of 0 still produces a price segment.
type SearchRequest struct {
	// Query is the free-text keyword search. Empty means no keyword filter.
	Query string `json:"query,omitempty" form:"query"`

	// Location is a postcode or city name understood by the site.
	Location string `json:"location,omitempty" form:"location"`

	// Radius is the search radius in km around Location.
	Radius *int `json:"radius,omitempty" form:"radius" binding:"omitempty,min=0"`

	// MinPrice and MaxPrice bound the listing price in whole euros.
	MinPrice *int `json:"min_price,omitempty" form:"min_price" binding:"omitempty,min=0"`
	MaxPrice *int `json:"max_price,omitempty" form:"max_price" binding:"omitempty,min=0"`

	// PageCount is the number of result pages to walk.
	// Default: 1. Max: 100 (further clamped by server config).
	PageCount int `json:"page_count,omitempty" form:"page_count" binding:"omitempty,min=1,max=100"`

	// StrictSearch suppresses results on pages where the site reports that
	// nothing matched the query exactly (it then shows related listings).
	StrictSearch bool `json:"strict_search,omitempty" form:"strict_search"`

	// WebhookURL, if set, receives a search.completed event after a
	// successful search.
	WebhookURL    string `json:"webhook_url,omitempty" form:"webhook_url" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty" form:"-"`
}

// Defaults applies default values to unset fields.
func (r *SearchRequest) Defaults() {
	if r.PageCount == 0 {
		r.PageCount = 1
	}
}

// ClampPages limits PageCount to max when max is positive.
func (r *SearchRequest) ClampPages(max int) {
	if max > 0 && r.PageCount > max {
		r.PageCount = max
	}
}
