package catalog

// searchResponse is the shape of /search/{kind} responses.
type searchResponse struct {
	Page    int            `json:"page"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID int `json:"id"`
}

// detailsResponse is the shape of /{kind}/{id} responses. Movie and series
// payloads differ only in the title and date field names.
type detailsResponse struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

// imagesResponse is the shape of /{kind}/{id}/images responses.
type imagesResponse struct {
	ID        int     `json:"id"`
	Posters   []Image `json:"posters"`
	Backdrops []Image `json:"backdrops"`
}

// Image is one poster or backdrop asset.
type Image struct {
	FilePath  string `json:"file_path"`
	ISO6391   string `json:"iso_639_1"`
	VoteCount int    `json:"vote_count"`
}
