package domain

import (
	"fmt"
	"strings"
)

// DataGap is the structured "insufficient data" response returned when a
// required dataset is missing or empty. It is a normal analysis outcome, not
// an error; callers receive it with a 200-class status.
type DataGap struct {
	Message string     `json:"message"`
	Missing []Category `json:"missing_datasets,omitempty"`
}

func NewDataGap(missing ...Category) *DataGap {
	names := make([]string, 0, len(missing))
	for _, c := range missing {
		names = append(names, string(c))
	}
	return &DataGap{
		Message: fmt.Sprintf("Upload %s to enable this analysis.", strings.Join(names, " + ")),
		Missing: missing,
	}
}
