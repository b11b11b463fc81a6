package models

// Listing is one normalized classified ad from a search result page.
type Listing struct {
	AdID            string `json:"adid"`
	URL             string `json:"url"`
	PreviewImageURL string `json:"preview_image_url"`
	Title           string `json:"title"`

	// Price is the cleaned price text ("1250", "Zu verschenken", ...).
	// It is not parsed because the site mixes numbers with free-text markers.
	Price       string `json:"price"`
	Description string `json:"description"`

	// Distance is the distance to the search location in km, 0 if unknown.
	Distance float64 `json:"distance"`
}
