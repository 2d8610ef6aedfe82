package models

// TemporaryCredential is the request token issued at the start of the handshake.
// Discogs does not echo Secret back at the callback, so callers must stash it.
type TemporaryCredential struct {
	Token        string `json:"oauth_token"`
	Secret       string `json:"oauth_token_secret"`
	AuthorizeURL string `json:"authorize_url"`
	// Owner is the application user that started the flow.
	Owner string `json:"owner,omitempty"`
}

// AccessCredential is a long-lived token pair plus the Discogs username it belongs to.
type AccessCredential struct {
	Username string `json:"discogs_username"`
	Token    string `json:"oauth_token"`
	Secret   string `json:"oauth_token_secret"`
}

// Identity is the response of the identity endpoint.
type Identity struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	ResourceURL  string `json:"resource_url"`
	ConsumerName string `json:"consumer_name"`
}

// Pagination mirrors the Discogs pagination envelope.
type Pagination struct {
	Page    int               `json:"page"`
	Pages   int               `json:"pages"`
	PerPage int               `json:"per_page"`
	Items   int               `json:"items"`
	URLs    map[string]string `json:"urls,omitempty"`
}

type Format struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty,omitempty"`
	Text         string   `json:"text,omitempty"`
	Descriptions []string `json:"descriptions,omitempty"`
}

type Label struct {
	Name  string `json:"name"`
	Catno string `json:"catno,omitempty"`
}

type Artist struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// BasicInformation is the release summary embedded in collection entries.
type BasicInformation struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Thumb       string   `json:"thumb"`
	CoverImage  string   `json:"cover_image"`
	ResourceURL string   `json:"resource_url,omitempty"`
	Formats     []Format `json:"formats"`
	Labels      []Label  `json:"labels"`
	Artists     []Artist `json:"artists"`
	Genres      []string `json:"genres"`
	Styles      []string `json:"styles"`
}

// CollectionRelease is one entry in a collection folder.
type CollectionRelease struct {
	ID               int              `json:"id"`
	InstanceID       int              `json:"instance_id"`
	FolderID         int              `json:"folder_id"`
	Rating           int              `json:"rating"`
	DateAdded        string           `json:"date_added"`
	BasicInformation BasicInformation `json:"basic_information"`
}

// Artist returns the first credited artist name.
func (r CollectionRelease) Artist() string {
	if len(r.BasicInformation.Artists) == 0 {
		return ""
	}
	return r.BasicInformation.Artists[0].Name
}

// CollectionPage is one page of a collection folder.
type CollectionPage struct {
	Pagination Pagination          `json:"pagination"`
	Releases   []CollectionRelease `json:"releases"`
}

// CollectionValue holds formatted price strings, e.g. "$1,234.56".
type CollectionValue struct {
	Minimum string `json:"minimum"`
	Median  string `json:"median"`
	Maximum string `json:"maximum"`
}

// CollectionResult is a filtered collection page returned to callers.
type CollectionResult struct {
	Releases        []CollectionRelease `json:"releases"`
	Pagination      Pagination          `json:"pagination"`
	Value           *CollectionValue    `json:"value"`
	DiscogsUsername string              `json:"discogs_username"`
}

// SearchQuery selects database search results. Type and Format default to release and CD.
type SearchQuery struct {
	Query   string `json:"query"`
	Type    string `json:"type"`
	Format  string `json:"format"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// SearchResult is the projected form of a database search hit.
type SearchResult struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Year        string   `json:"year,omitempty"`
	Country     string   `json:"country,omitempty"`
	Format      []string `json:"format,omitempty"`
	Label       []string `json:"label,omitempty"`
	Genre       []string `json:"genre,omitempty"`
	Style       []string `json:"style,omitempty"`
	CoverImage  string   `json:"cover_image,omitempty"`
	Thumb       string   `json:"thumb,omitempty"`
	ResourceURL string   `json:"resource_url,omitempty"`
	MasterURL   string   `json:"master_url,omitempty"`
	URI         string   `json:"uri,omitempty"`
	Type        string   `json:"type,omitempty"`
}

type SearchPage struct {
	Results    []SearchResult `json:"results"`
	Pagination Pagination     `json:"pagination"`
}

type Image struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

type Track struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

type Rating struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

type Community struct {
	Have   int    `json:"have"`
	Want   int    `json:"want"`
	Rating Rating `json:"rating"`
}

// ReleaseDetail is the projected release page.
type ReleaseDetail struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	ArtistsSort  string     `json:"artists_sort"`
	Year         int        `json:"year"`
	Genres       []string   `json:"genres"`
	Styles       []string   `json:"styles"`
	Labels       []Label    `json:"labels"`
	Images       []Image    `json:"images"`
	Tracklist    []Track    `json:"tracklist"`
	ExtraArtists []Artist   `json:"extraartists"`
	Country      string     `json:"country"`
	Notes        string     `json:"notes"`
	URI          string     `json:"uri"`
	Community    *Community `json:"community"`
	LowestPrice  *float64   `json:"lowest_price"`
	NumForSale   int        `json:"num_for_sale"`
}

// Price is a marketplace amount.
type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Listing is a marketplace listing as returned by Discogs.
type Listing struct {
	ID              int    `json:"id"`
	Price           Price  `json:"price"`
	Condition       string `json:"condition"`
	SleeveCondition string `json:"sleeve_condition"`
	ShipsFrom       string `json:"ships_from"`
	Release         struct {
		ID     int    `json:"id"`
		Format string `json:"format"`
	} `json:"release"`
}

type ListingsPage struct {
	Listings   []Listing  `json:"listings"`
	Pagination Pagination `json:"pagination"`
}

// ListingSummary is the projected form of a listing in a price check.
type ListingSummary struct {
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	Condition       string  `json:"condition"`
	SleeveCondition string  `json:"sleeve_condition"`
	ShipsFrom       string  `json:"ships_from"`
}

// PriceCheck combines the suggested price and the cheapest listings for a release.
type PriceCheck struct {
	ReleaseID      int              `json:"release_id"`
	MinPrice       *float64         `json:"min_price"`
	ForSaleCount   int              `json:"for_sale_count"`
	SuggestedPrice *float64         `json:"suggested_price,omitempty"`
	Currency       string           `json:"currency"`
	Listings       []ListingSummary `json:"listings"`
}
