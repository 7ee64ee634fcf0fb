package track

import "fmt"

type ErrorKind int

const (
	MalformedXML ErrorKind = iota + 1
	EmptyTrack
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedXML:
		return "malformed_xml"
	case EmptyTrack:
		return "empty_track"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError is the only error Parse returns for bad input. Match it with
// errors.As and switch on Kind.
type ParseError struct {
	Kind ErrorKind
	Err  error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case MalformedXML:
		if e.Err != nil {
			return fmt.Sprintf("invalid GPX: malformed XML: %v", e.Err)
		}
		return "invalid GPX: malformed XML"
	case EmptyTrack:
		return "invalid GPX: no tracks found"
	}
	return fmt.Sprintf("invalid GPX: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
