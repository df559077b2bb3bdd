package models

// Airport is one reference record from the airport directory.
// IATA is always upper-cased; records are never mutated after load.
type Airport struct {
	IATA    string  `json:"iata" bson:"iata"`
	ICAO    string  `json:"icao,omitempty" bson:"icao"`
	Name    string  `json:"name" bson:"name"`
	City    string  `json:"city,omitempty" bson:"city"`
	State   string  `json:"state,omitempty" bson:"state"`
	Country string  `json:"country,omitempty" bson:"country"`
	Lat     float64 `json:"lat,omitempty" bson:"lat"`
	Lon     float64 `json:"lon,omitempty" bson:"lon"`
	TZ      string  `json:"tz,omitempty" bson:"tz"`
}
