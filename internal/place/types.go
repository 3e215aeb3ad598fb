package place

import "time"

// Location is a geocoded place, durably stored and keyed by the raw search text.
// Geocoding results are treated as immutable: once stored they are never
// refreshed or expired.
type Location struct {
	ID             int       `json:"id"`
	SearchQuery    string    `json:"search_query"`
	FormattedQuery string    `json:"formatted_query"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	CreatedAt      time.Time `json:"-"`
}

// Forecast is one day of weather for a location. Batches are stored and
// invalidated per location as a unit.
type Forecast struct {
	ID         int       `json:"-"`
	LocationID int       `json:"-"`
	Forecast   string    `json:"forecast"`
	Time       string    `json:"time"`
	CreatedAt  time.Time `json:"-"`
}

// Movie is a request-scoped projection of a movie search result.
type Movie struct {
	Title        string  `json:"title"`
	ReleasedOn   string  `json:"released_on"`
	TotalVotes   int     `json:"total_votes"`
	AverageVotes float64 `json:"average_votes"`
	Popularity   float64 `json:"popularity"`
	ImageURL     string  `json:"image_url"`
	Overview     string  `json:"overview"`
}

// Review is a request-scoped projection of a business review result.
type Review struct {
	URL      string  `json:"url"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
	Price    string  `json:"price"`
	ImageURL string  `json:"image_url"`
}

// Meetup is a request-scoped projection of an upcoming social event.
type Meetup struct {
	Link         string `json:"link"`
	Name         string `json:"name"`
	Host         string `json:"host"`
	CreationDate string `json:"creation_date"`
}

// Trail is a request-scoped projection of a nearby trail and its reported
// conditions.
type Trail struct {
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	TrailURL      string  `json:"trail_url"`
	Distance      float64 `json:"distance"`
	Conditions    string  `json:"conditions"`
	ConditionDate string  `json:"condition_date"`
	ConditionTime string  `json:"condition_time"`
	Rating        float64 `json:"rating"`
	MaxRating     int     `json:"max_rating"`
}
