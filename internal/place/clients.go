package place

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

// dayFormat matches the day strings the client application renders,
// e.g. "Mon Jan 02 2006".
const dayFormat = "Mon Jan 02 2006"

// newHTTPClient returns an http.Client with a 10-second timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// doGet performs a GET request with optional headers and decodes the JSON
// response into dst.
func doGet(ctx context.Context, client *http.Client, rawURL string, header http.Header, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}

	return nil
}

// ---- Geocoding ----

// GeocodeClient resolves free-text queries to coordinates via the Google
// Maps geocoding API.
type GeocodeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const geocodeDefaultURL = "https://maps.googleapis.com/maps/api/geocode/json"

// NewGeocodeClient constructs a GeocodeClient with the given API key.
func NewGeocodeClient(apiKey string) *GeocodeClient {
	return &GeocodeClient{apiKey: apiKey, baseURL: geocodeDefaultURL, client: newHTTPClient()}
}

// NewGeocodeClientWithURL constructs a GeocodeClient pointing at a custom base URL (for tests).
func NewGeocodeClientWithURL(baseURL, apiKey string) *GeocodeClient {
	return &GeocodeClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type geocodeResponse struct {
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Fetch geocodes the given free-text query. The first result wins.
func (c *GeocodeClient) Fetch(ctx context.Context, query string) (*Location, error) {
	endpoint := c.baseURL + "?address=" + url.QueryEscape(query) + "&key=" + c.apiKey

	var raw geocodeResponse
	if err := doGet(ctx, c.client, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", query, err)
	}

	if len(raw.Results) == 0 {
		return nil, fmt.Errorf("geocoding %q: no results", query)
	}

	first := raw.Results[0]
	return &Location{
		SearchQuery:    query,
		FormattedQuery: first.FormattedAddress,
		Latitude:       first.Geometry.Location.Lat,
		Longitude:      first.Geometry.Location.Lng,
	}, nil
}

// ---- Weather ----

// WeatherClient fetches the daily forecast from the Dark Sky API.
type WeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const weatherDefaultURL = "https://api.darksky.net/forecast"

// NewWeatherClient constructs a WeatherClient with the given API key.
func NewWeatherClient(apiKey string) *WeatherClient {
	return &WeatherClient{apiKey: apiKey, baseURL: weatherDefaultURL, client: newHTTPClient()}
}

// NewWeatherClientWithURL constructs a WeatherClient pointing at a custom base URL (for tests).
func NewWeatherClientWithURL(baseURL, apiKey string) *WeatherClient {
	return &WeatherClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type weatherResponse struct {
	Daily struct {
		Data []struct {
			Summary string `json:"summary"`
			Time    int64  `json:"time"`
		} `json:"data"`
	} `json:"daily"`
}

// Fetch retrieves one Forecast per forecast day for the given coordinates.
func (c *WeatherClient) Fetch(ctx context.Context, lat, lon float64) ([]Forecast, error) {
	endpoint := fmt.Sprintf("%s/%s/%f,%f", c.baseURL, c.apiKey, lat, lon)

	var raw weatherResponse
	if err := doGet(ctx, c.client, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("weather fetch for %f,%f: %w", lat, lon, err)
	}

	days := make([]Forecast, 0, len(raw.Daily.Data))
	for _, d := range raw.Daily.Data {
		days = append(days, Forecast{
			Forecast: d.Summary,
			Time:     time.Unix(d.Time, 0).UTC().Format(dayFormat),
		})
	}

	return days, nil
}

// ---- Movies ----

// MovieClient searches movie metadata via The Movie Database.
type MovieClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const movieDefaultURL = "https://api.themoviedb.org/3/search/movie"

// NewMovieClient constructs a MovieClient with the given API key.
func NewMovieClient(apiKey string) *MovieClient {
	return &MovieClient{apiKey: apiKey, baseURL: movieDefaultURL, client: newHTTPClient()}
}

// NewMovieClientWithURL constructs a MovieClient pointing at a custom base URL (for tests).
func NewMovieClientWithURL(baseURL, apiKey string) *MovieClient {
	return &MovieClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type movieResponse struct {
	Results []struct {
		Title        string  `json:"title"`
		ReleaseDate  string  `json:"release_date"`
		VoteCount    int     `json:"vote_count"`
		VoteAverage  float64 `json:"vote_average"`
		Popularity   float64 `json:"popularity"`
		BackdropPath string  `json:"backdrop_path"`
		Overview     string  `json:"overview"`
	} `json:"results"`
}

// Search retrieves movies matching the given search text.
func (c *MovieClient) Search(ctx context.Context, query string) ([]Movie, error) {
	endpoint := c.baseURL + "?api_key=" + c.apiKey + "&language=en-US&query=" + url.QueryEscape(query)

	var raw movieResponse
	if err := doGet(ctx, c.client, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("movie search for %q: %w", query, err)
	}

	movies := make([]Movie, 0, len(raw.Results))
	for _, m := range raw.Results {
		movies = append(movies, Movie{
			Title:        m.Title,
			ReleasedOn:   m.ReleaseDate,
			TotalVotes:   m.VoteCount,
			AverageVotes: m.VoteAverage,
			Popularity:   m.Popularity,
			ImageURL:     m.BackdropPath,
			Overview:     m.Overview,
		})
	}

	return movies, nil
}

// ---- Yelp ----

// YelpClient fetches nearby businesses from the Yelp Fusion API.
// Yelp authenticates with a bearer token rather than a query parameter.
type YelpClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const yelpDefaultURL = "https://api.yelp.com/v3/businesses/search"

// NewYelpClient constructs a YelpClient with the given API key.
func NewYelpClient(apiKey string) *YelpClient {
	return &YelpClient{apiKey: apiKey, baseURL: yelpDefaultURL, client: newHTTPClient()}
}

// NewYelpClientWithURL constructs a YelpClient pointing at a custom base URL (for tests).
func NewYelpClientWithURL(baseURL, apiKey string) *YelpClient {
	return &YelpClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type yelpResponse struct {
	Businesses []struct {
		URL      string  `json:"url"`
		Name     string  `json:"name"`
		Rating   float64 `json:"rating"`
		Price    string  `json:"price"`
		ImageURL string  `json:"image_url"`
	} `json:"businesses"`
}

// Fetch retrieves business reviews near the given coordinates.
func (c *YelpClient) Fetch(ctx context.Context, lat, lon float64) ([]Review, error) {
	endpoint := fmt.Sprintf("%s?latitude=%f&longitude=%f", c.baseURL, lat, lon)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)

	var raw yelpResponse
	if err := doGet(ctx, c.client, endpoint, header, &raw); err != nil {
		return nil, fmt.Errorf("yelp fetch for %f,%f: %w", lat, lon, err)
	}

	reviews := make([]Review, 0, len(raw.Businesses))
	for _, b := range raw.Businesses {
		reviews = append(reviews, Review{
			URL:      b.URL,
			Name:     b.Name,
			Rating:   b.Rating,
			Price:    b.Price,
			ImageURL: b.ImageURL,
		})
	}

	return reviews, nil
}

// ---- Meetups ----

// MeetupClient fetches upcoming social events from the Meetup API.
type MeetupClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const meetupDefaultURL = "https://api.meetup.com/find/upcoming_events"

// NewMeetupClient constructs a MeetupClient with the given API key.
func NewMeetupClient(apiKey string) *MeetupClient {
	return &MeetupClient{apiKey: apiKey, baseURL: meetupDefaultURL, client: newHTTPClient()}
}

// NewMeetupClientWithURL constructs a MeetupClient pointing at a custom base URL (for tests).
func NewMeetupClientWithURL(baseURL, apiKey string) *MeetupClient {
	return &MeetupClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type meetupResponse struct {
	Events []struct {
		Link  string `json:"link"`
		Name  string `json:"name"`
		Group struct {
			Name string `json:"name"`
		} `json:"group"`
		Created int64 `json:"created"`
	} `json:"events"`
}

// Fetch retrieves upcoming meetups near the given coordinates.
func (c *MeetupClient) Fetch(ctx context.Context, lat, lon float64) ([]Meetup, error) {
	endpoint := fmt.Sprintf(
		"%s?sign=true&photo-host=public&lon=%f&page=20&radius=1&lat=%f&key=%s",
		c.baseURL, lon, lat, c.apiKey,
	)

	var raw meetupResponse
	if err := doGet(ctx, c.client, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("meetup fetch for %f,%f: %w", lat, lon, err)
	}

	meetups := make([]Meetup, 0, len(raw.Events))
	for _, e := range raw.Events {
		created := ""
		if e.Created > 0 {
			// Meetup reports creation time as a millisecond epoch.
			created = time.UnixMilli(e.Created).UTC().Format(dayFormat)
		}
		meetups = append(meetups, Meetup{
			Link:         e.Link,
			Name:         e.Name,
			Host:         e.Group.Name,
			CreationDate: created,
		})
	}

	return meetups, nil
}

// ---- Trails ----

// TrailClient fetches nearby trails and their conditions from the Hiking
// Project API.
type TrailClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const trailDefaultURL = "https://www.hikingproject.com/data/get-trails"

// NewTrailClient constructs a TrailClient with the given API key.
func NewTrailClient(apiKey string) *TrailClient {
	return &TrailClient{apiKey: apiKey, baseURL: trailDefaultURL, client: newHTTPClient()}
}

// NewTrailClientWithURL constructs a TrailClient pointing at a custom base URL (for tests).
func NewTrailClientWithURL(baseURL, apiKey string) *TrailClient {
	return &TrailClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient()}
}

type trailResponse struct {
	Trails []struct {
		Name             string  `json:"name"`
		Location         string  `json:"location"`
		URL              string  `json:"url"`
		Length           float64 `json:"length"`
		ConditionDetails string  `json:"conditionDetails"`
		ConditionDate    string  `json:"conditionDate"`
		Stars            float64 `json:"stars"`
		StarVotes        int     `json:"starVotes"`
	} `json:"trails"`
}

// splitConditionDate splits the provider's "2006-01-02 15:04:05" timestamp
// into its date and time halves. Either half may be empty if the provider
// reports no condition observation.
func splitConditionDate(s string) (date, clock string) {
	parts := strings.SplitN(s, " ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return s, ""
}

// Fetch retrieves trails near the given coordinates.
func (c *TrailClient) Fetch(ctx context.Context, lat, lon float64) ([]Trail, error) {
	endpoint := fmt.Sprintf("%s?lat=%f&lon=%f&key=%s", c.baseURL, lat, lon, c.apiKey)

	var raw trailResponse
	if err := doGet(ctx, c.client, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("trail fetch for %f,%f: %w", lat, lon, err)
	}

	trails := make([]Trail, 0, len(raw.Trails))
	for _, t := range raw.Trails {
		date, clock := splitConditionDate(t.ConditionDate)
		trails = append(trails, Trail{
			Name:          t.Name,
			Location:      t.Location,
			TrailURL:      t.URL,
			Distance:      t.Length,
			Conditions:    t.ConditionDetails,
			ConditionDate: date,
			ConditionTime: clock,
			Rating:        t.Stars,
			MaxRating:     t.StarVotes,
		})
	}

	return trails, nil
}
