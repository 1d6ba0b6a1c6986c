// internal/models/request.go
package models

// DiningRequest is the immutable queue payload produced once per fulfilled
// dialog turn. Cuisine is lowercased before submission.
type DiningRequest struct {
	Location   string `json:"location"`
	Cuisine    string `json:"cuisine"`
	DiningTime string `json:"diningTime"`
	PartySize  string `json:"partySize"`
	Email      string `json:"email"`
	RequestID  string `json:"requestId"`
	CreatedAt  string `json:"createdAt"`
}

// Preference is a session's last-used location and cuisine. Upsert-only,
// never deleted.
type Preference struct {
	SessionID    string `dynamodbav:"sessionId" json:"sessionId"`
	LastLocation string `dynamodbav:"lastLocation" json:"lastLocation"`
	LastCuisine  string `dynamodbav:"lastCuisine" json:"lastCuisine"`
	UpdatedAt    string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Coordinates is a restaurant's location point.
type Coordinates struct {
	Latitude  float64 `dynamodbav:"latitude" json:"latitude"`
	Longitude float64 `dynamodbav:"longitude" json:"longitude"`
}

// RestaurantRecord is the full catalog entry for one restaurant, keyed by
// businessId. Read-only from this pipeline's perspective.
type RestaurantRecord struct {
	BusinessID  string      `dynamodbav:"businessId" json:"businessId"`
	Name        string      `dynamodbav:"name" json:"name"`
	Address     string      `dynamodbav:"address" json:"address"`
	Rating      float64     `dynamodbav:"rating" json:"rating"`
	ReviewCount int         `dynamodbav:"reviewCount" json:"reviewCount"`
	Coordinates Coordinates `dynamodbav:"coordinates" json:"coordinates"`
	Cuisine     string      `dynamodbav:"cuisine" json:"cuisine"`
}

// IndexEntry is the minimal searchable projection of a RestaurantRecord.
type IndexEntry struct {
	BusinessID string `json:"businessId"`
	Cuisine    string `json:"cuisine"`
}
