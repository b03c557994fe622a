package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldGardenID  = "garden_id"
	FieldPlantID   = "plant_id"
	FieldZone      = "zone"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Path fields
	FieldPath = "path"
)
