package advisor

// Request captures the payload accepted by the advisory service.
type Request struct {
	UserID      string  `json:"uid"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	UserProfile string  `json:"user_profile"`
}

// AQIData is the live air-quality snapshot echoed back to clients and
// embedded verbatim in the model prompt.
type AQIData struct {
	AQIIndex  int     `json:"aqi_index"`
	PM25      float64 `json:"pm2_5"`
	IndianAQI int     `json:"indian_aqi"`
	Category  string  `json:"category"`
}

// Activity is one activity recommendation inside an advisory.
type Activity struct {
	Status string `json:"status"`
	Color  string `json:"color"`
}

// Advisory is the structured result parsed from the model output.
// When parsing fails Activities is an empty map and AdvisoryText carries the
// raw (post fence-strip) model text so the client always has something to
// render.
type Advisory struct {
	AdvisoryText string              `json:"advisory_text"`
	Activities   map[string]Activity `json:"activities"`
}

// Response is serialized back to API consumers.
type Response struct {
	AQI      AQIData  `json:"aqi"`
	Advisory Advisory `json:"advisory"`
}

// Config wires runtime knobs for the advisory domain.
type Config struct {
	Model             string
	Temperature       float32
	RetrieveK         int
	MockOnFeedFailure bool
}
