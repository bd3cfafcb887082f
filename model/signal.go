package model

// Signal is one data row of an uploaded signal file.
type Signal struct {
	Row     int    `json:"row"`      // 1-based data row, header excluded
	Symbol  string `json:"symbol"`   // as written in the file
	RawDate string `json:"raw_date"` // untouched date cell
}

// ProgressStarting is the symbol carried by the progress event sent before
// the first signal is processed.
const ProgressStarting = "Initializing..."

// ProgressEvent reports how many signals of a run have been processed.
type ProgressEvent struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Symbol  string `json:"symbol"`
}
