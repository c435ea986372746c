package events

import (
	"encoding/json"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// LiquidityAlertData contains data for LiquidityAlert events
type LiquidityAlertData struct {
	FundID         string   `json:"fund_id"`
	FundName       string   `json:"fund_name"`
	Code           string   `json:"code"`
	Severity       string   `json:"severity"`
	Message        string   `json:"message"`
	Vertex         string   `json:"vertex"`
	LiquidityIndex *float64 `json:"liquidity_index"`
}

// EventType returns the event type for LiquidityAlertData
func (d *LiquidityAlertData) EventType() EventType {
	return LiquidityAlert
}

// AnalysisCompletedData contains data for AnalysisCompleted events
type AnalysisCompletedData struct {
	FundID          string   `json:"fund_id"`
	Method          string   `json:"method"`
	Classification  string   `json:"classification"`
	LiquidityIndex  *float64 `json:"liquidity_index"`
	MismatchPercent float64  `json:"mismatch_percent"`
}

// EventType returns the event type for AnalysisCompletedData
func (d *AnalysisCompletedData) EventType() EventType {
	return AnalysisCompleted
}

// FundChangedData contains data for FundChanged events
type FundChangedData struct {
	FundID string `json:"fund_id"`
	Change string `json:"change"` // created, updated, deleted, holdings, history
}

// EventType returns the event type for FundChangedData
func (d *FundChangedData) EventType() EventType {
	return FundChanged
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
	Pruned    int    `json:"pruned"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// UnmarshalJSON decodes the data payload into its typed struct
func (e *Event) UnmarshalJSON(data []byte) error {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data,omitempty"`
		*Alias
	}{Alias: (*Alias)(e)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Data) == 0 || string(aux.Data) == "null" {
		e.Data = nil
		return nil
	}

	var eventData EventData
	switch e.Type {
	case LiquidityAlert:
		eventData = &LiquidityAlertData{}
	case AnalysisCompleted:
		eventData = &AnalysisCompletedData{}
	case FundChanged:
		eventData = &FundChangedData{}
	case BackupCompleted:
		eventData = &BackupCompletedData{}
	default:
		eventData = &GenericEventData{Type: e.Type}
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
