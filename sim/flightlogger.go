package sim

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// FlightLogger writes a CSV time series of whatever float values are
// registered in its map; the map holds pointers, so each Log call
// records the current values. Column order follows the header slice.
type FlightLogger struct {
	f      *os.File
	Header []string
	logMap map[string]*float64
	fmt    string
	vals   []interface{}
}

// NewFlightLogger creates filename, writes the CSV header and returns
// a logger over logMap.
func NewFlightLogger(filename string, logMap map[string]*float64) (l *FlightLogger) {
	l = new(FlightLogger)
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalln(err)
	}
	l.f = f
	l.logMap = logMap

	l.Header = make([]string, 0, len(logMap))
	for k := range l.logMap {
		l.Header = append(l.Header, k)
	}

	fmt.Fprint(l.f, strings.Join(l.Header, ","), "\n")
	s := strings.Repeat("%f,", len(l.Header))
	l.fmt = strings.Join([]string{s[:len(s)-1], "\n"}, "")
	l.vals = make([]interface{}, len(l.Header))
	return
}

// Log appends one row with the current values.
func (l *FlightLogger) Log() {
	for i, k := range l.Header {
		l.vals[i] = *l.logMap[k]
	}
	fmt.Fprintf(l.f, l.fmt, l.vals...)
}

// Close flushes and closes the file.
func (l *FlightLogger) Close() {
	l.f.Close()
}
