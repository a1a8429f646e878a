package models

// LiveLocation is a vehicle position reported by the external fleet service.
type LiveLocation struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	LastUpdated string  `json:"lastUpdated"`
}

// DriverWithCar is the aggregated view served to the live map: the driver row,
// its first car and, when the fleet service knows the vehicle, its live position.
type DriverWithCar struct {
	Driver
	Car             *Car          `json:"car"`
	CurrentLocation *LiveLocation `json:"currentLocation"`
}
