package models

// DefaultSettings returns the stock destination (the Accra office) and optimizer parameters
func DefaultSettings() Settings {
	return Settings{
		DestinationName: "Office",
		DestinationLat:  5.582636441579255,
		DestinationLng:  -0.143551646497661,
		GridSize:        3,
		Sigma:           1.0,
		LearningRate:    0.5,
		Epochs:          1000,
		MinPassengers:   3,
		MaxPassengers:   4,
		CostPerKm:       2.5,
		Seed:            42,
	}
}
