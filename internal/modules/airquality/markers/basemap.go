package markers

// Basemap describes the tile source and initial camera handed to the map
// renderer. Tiles are fetched by the browser directly from the provider.
type Basemap struct {
	TileURLs    []string `json:"tileUrls"`
	MaxRequests int      `json:"maxRequests"`
	MinZoom     int      `json:"minZoom"`
	MaxZoom     int      `json:"maxZoom"`
	TileSize    int      `json:"tileSize"`
	// LowDPIZoomOffset is applied on screens with devicePixelRatio 1, where
	// 256px tiles would otherwise be drawn one level too detailed.
	LowDPIZoomOffset int       `json:"lowDpiZoomOffset"`
	View             ViewState `json:"initialViewState"`
}

type ViewState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	MaxZoom   float64 `json:"maxZoom"`
	MaxPitch  float64 `json:"maxPitch"`
	Bearing   float64 `json:"bearing"`
}

// DefaultBasemap round-robins the three OpenStreetMap tile hosts and centers
// on Subotica.
func DefaultBasemap() Basemap {
	return Basemap{
		TileURLs: []string{
			"https://a.tile.openstreetmap.org/{z}/{x}/{y}.png",
			"https://b.tile.openstreetmap.org/{z}/{x}/{y}.png",
			"https://c.tile.openstreetmap.org/{z}/{x}/{y}.png",
		},
		MaxRequests:      20,
		MinZoom:          0,
		MaxZoom:          19,
		TileSize:         256,
		LowDPIZoomOffset: -1,
		View: ViewState{
			Latitude:  46.0972,
			Longitude: 19.6691,
			Zoom:      12.4,
			MaxZoom:   20,
			MaxPitch:  89,
			Bearing:   0,
		},
	}
}
