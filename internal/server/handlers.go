package server

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gpx_poster/internal/format"
	"gpx_poster/internal/poster"
	"gpx_poster/internal/render"
	"gpx_poster/internal/track"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

func sendError(c *gin.Context, status int, err, message string) {
	c.JSON(status, ErrorResponse{Error: err, Message: message, Code: status})
}

const dateLayout = "2006-01-02"

// SessionView is the JSON shape of a session: its editable fields plus
// every derived display value.
type SessionView struct {
	ID       string `json:"id"`
	HasTrack bool   `json:"has_track"`
	Diverged bool   `json:"diverged"`

	Unit         string  `json:"unit"`
	ActivityType string  `json:"activity_type"`
	AthleteName  string  `json:"athlete_name"`
	EventName    string  `json:"event_name"`
	BibNumber    string  `json:"bib_number"`
	FinishTime   string  `json:"finish_time"`
	Date         string  `json:"date,omitempty"`
	Distance     float64 `json:"distance"`

	Theme            string `json:"theme"`
	RouteColor       string `json:"route_color"`
	CustomBgColor    string `json:"custom_bg_color,omitempty"`
	CustomTextColor  string `json:"custom_text_color,omitempty"`
	CustomRouteColor string `json:"custom_route_color,omitempty"`
	AspectRatio      string `json:"aspect_ratio"`
	MapStyle         string `json:"map_style"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`

	Display DisplayView `json:"display"`
}

type DisplayView struct {
	Distance           string `json:"distance"`
	DistanceLabel      string `json:"distance_label"`
	Pace               string `json:"pace"`
	PaceLabel          string `json:"pace_label"`
	Speed              string `json:"speed"`
	SpeedLabel         string `json:"speed_label"`
	PrimaryMetric      string `json:"primary_metric"`
	PrimaryMetricLabel string `json:"primary_metric_label"`
	Date               string `json:"date"`
	ElevationGain      string `json:"elevation_gain"`
	BgColor            string `json:"bg_color"`
	TextColor          string `json:"text_color"`
	RouteColor         string `json:"route_color"`
}

func newSessionView(id string, s *poster.Session) SessionView {
	d := s.Data()
	v := SessionView{
		ID:               id,
		HasTrack:         s.HasTrack(),
		Diverged:         s.Diverged(),
		Unit:             string(d.Unit),
		ActivityType:     string(d.ActivityType),
		AthleteName:      d.AthleteName,
		EventName:        d.EventName,
		BibNumber:        d.BibNumber,
		FinishTime:       d.FinishTime,
		Distance:         d.Distance,
		Theme:            string(d.Theme),
		RouteColor:       string(d.RouteColor),
		CustomBgColor:    d.CustomBgColor,
		CustomTextColor:  d.CustomTextColor,
		CustomRouteColor: d.CustomRoute,
		AspectRatio:      string(d.AspectRatio),
		MapStyle:         s.EffectiveMapStyle(),
		Width:            s.Width(),
		Height:           s.Height(),
		Display: DisplayView{
			Distance:           s.FormattedDistance(),
			DistanceLabel:      s.DistanceLabel(),
			Pace:               s.FormattedPace(),
			PaceLabel:          s.PaceLabel(),
			Speed:              s.FormattedSpeed(),
			SpeedLabel:         s.SpeedLabel(),
			PrimaryMetric:      s.PrimaryMetric(),
			PrimaryMetricLabel: s.PrimaryMetricLabel(),
			Date:               s.FormattedDate(),
			ElevationGain:      s.FormattedElevationGain(),
			BgColor:            s.EffectiveBgColor(),
			TextColor:          s.EffectiveTextColor(),
			RouteColor:         s.EffectiveRouteColor(),
		},
	}
	if d.Date != nil {
		v.Date = d.Date.Format(dateLayout)
	}
	return v
}

// UpdateRequest is a partial edit; nil fields are left alone. Unit is
// applied before Distance so a distance sent with a unit is read in
// that unit.
type UpdateRequest struct {
	Unit             *string  `json:"unit"`
	Distance         *float64 `json:"distance"`
	FinishTime       *string  `json:"finish_time"`
	ActivityType     *string  `json:"activity_type"`
	AthleteName      *string  `json:"athlete_name"`
	EventName        *string  `json:"event_name"`
	BibNumber        *string  `json:"bib_number"`
	Date             *string  `json:"date"`
	Theme            *string  `json:"theme"`
	RouteColor       *string  `json:"route_color"`
	CustomBgColor    *string  `json:"custom_bg_color"`
	CustomTextColor  *string  `json:"custom_text_color"`
	CustomRouteColor *string  `json:"custom_route_color"`
	AspectRatio      *string  `json:"aspect_ratio"`
	MapStyle         *string  `json:"map_style"`
}

type validationError struct{ err error }

func (e validationError) Error() string { return e.err.Error() }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return validationError{err}
}

func (req UpdateRequest) apply(s *poster.Session) error {
	if req.Unit != nil {
		if err := s.SetUnit(format.Unit(*req.Unit)); err != nil {
			return invalid(err)
		}
	}
	if req.Distance != nil {
		if *req.Distance < 0 {
			return invalid(fmt.Errorf("distance must not be negative"))
		}
		s.SetDistance(*req.Distance)
	}
	if req.FinishTime != nil {
		s.SetFinishTime(*req.FinishTime)
	}
	if req.ActivityType != nil {
		if err := s.SetActivityType(track.ActivityType(*req.ActivityType)); err != nil {
			return invalid(err)
		}
	}
	if req.AthleteName != nil {
		s.SetAthleteName(*req.AthleteName)
	}
	if req.EventName != nil {
		s.SetEventName(*req.EventName)
	}
	if req.BibNumber != nil {
		s.SetBibNumber(*req.BibNumber)
	}
	if req.Date != nil {
		if *req.Date == "" {
			s.SetDate(nil)
		} else {
			d, err := time.Parse(dateLayout, *req.Date)
			if err != nil {
				return invalid(fmt.Errorf("date must be YYYY-MM-DD: %w", err))
			}
			s.SetDate(&d)
		}
	}
	if req.Theme != nil {
		if err := s.SetTheme(poster.Theme(*req.Theme)); err != nil {
			return invalid(err)
		}
	}
	if req.RouteColor != nil {
		if err := s.SetRouteColor(poster.RouteColor(*req.RouteColor)); err != nil {
			return invalid(err)
		}
	}
	if req.CustomBgColor != nil {
		if err := s.SetCustomBgColor(*req.CustomBgColor); err != nil {
			return invalid(err)
		}
	}
	if req.CustomTextColor != nil {
		if err := s.SetCustomTextColor(*req.CustomTextColor); err != nil {
			return invalid(err)
		}
	}
	if req.CustomRouteColor != nil {
		if err := s.SetCustomRouteColor(*req.CustomRouteColor); err != nil {
			return invalid(err)
		}
	}
	if req.AspectRatio != nil {
		if err := s.SetAspectRatio(poster.AspectRatio(*req.AspectRatio)); err != nil {
			return invalid(err)
		}
	}
	if req.MapStyle != nil {
		if err := s.SetMapStyle(*req.MapStyle); err != nil {
			return invalid(err)
		}
	}
	return nil
}

type Handler struct {
	store          *Store
	renderer       *render.Renderer
	maxUploadBytes int64
	defaultStyle   string
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "sessions": h.store.Len()})
}

// readUpload validates and parses the multipart "file" field.
func (h *Handler) readUpload(c *gin.Context) (*track.Track, bool) {
	// leave room for the multipart envelope around the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+64*1024)

	header, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			ue := tooLarge(h.maxUploadBytes)
			sendError(c, http.StatusRequestEntityTooLarge, ue.Type, ue.Message)
			return nil, false
		}
		sendError(c, http.StatusBadRequest, "missing-file", "multipart field \"file\" is required")
		return nil, false
	}
	if ue := ValidateUpload(header.Filename, header.Size, h.maxUploadBytes); ue != nil {
		status := http.StatusBadRequest
		if ue.Type == FileTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		sendError(c, status, ue.Type, ue.Message)
		return nil, false
	}

	trk, err := parseUpload(header)
	if err != nil {
		var pe *track.ParseError
		if errors.As(err, &pe) {
			sendError(c, http.StatusUnprocessableEntity, pe.Kind.String(), pe.Error())
			return nil, false
		}
		log.Printf("read upload %s: %v", header.Filename, err)
		sendError(c, http.StatusInternalServerError, "Internal server error", "could not read upload")
		return nil, false
	}
	return trk, true
}

func parseUpload(header *multipart.FileHeader) (*track.Track, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return track.ParseReader(f)
}

func (h *Handler) CreateSession(c *gin.Context) {
	trk, ok := h.readUpload(c)
	if !ok {
		return
	}
	s := poster.NewSession()
	if h.defaultStyle != "" {
		if err := s.SetMapStyle(h.defaultStyle); err != nil {
			log.Printf("default map style: %v", err)
		}
	}
	s.LoadFromTrack(trk)
	id := h.store.Create(s)
	c.JSON(http.StatusCreated, newSessionView(id, s))
}

// ReplaceTrack loads a new GPX into an existing session, keeping its
// presentation settings.
func (h *Handler) ReplaceTrack(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.get(id); err != nil {
		h.sendStoreError(c, err)
		return
	}
	trk, ok := h.readUpload(c)
	if !ok {
		return
	}
	var view SessionView
	err := h.store.Update(id, func(s *poster.Session) error {
		s.LoadFromTrack(trk)
		view = newSessionView(id, s)
		return nil
	})
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("id")
	var view SessionView
	err := h.store.View(id, func(s *poster.Session) error {
		view = newSessionView(id, s)
		return nil
	})
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) UpdateSession(c *gin.Context) {
	id := c.Param("id")
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	var view SessionView
	err := h.store.Update(id, func(s *poster.Session) error {
		if err := req.apply(s); err != nil {
			return err
		}
		view = newSessionView(id, s)
		return nil
	})
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) ResetSession(c *gin.Context) {
	id := c.Param("id")
	var view SessionView
	err := h.store.Update(id, func(s *poster.Session) error {
		s.Reset()
		view = newSessionView(id, s)
		return nil
	})
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if !h.store.Delete(c.Param("id")) {
		sendError(c, http.StatusNotFound, "Session not found", "")
		return
	}
	c.Status(http.StatusNoContent)
}

var errNoTrack = errors.New("no track loaded")

func (h *Handler) GetRoute(c *gin.Context) {
	var body []byte
	err := h.store.View(c.Param("id"), func(s *poster.Session) error {
		d := s.Data()
		if d.Track == nil {
			return errNoTrack
		}
		var err error
		body, err = d.Track.FeatureCollection().MarshalJSON()
		return err
	})
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

func (h *Handler) GetPoster(c *gin.Context) {
	var buf bytes.Buffer
	err := h.store.View(c.Param("id"), func(s *poster.Session) error {
		img, err := h.renderer.Render(c.Request.Context(), s)
		if err != nil {
			return err
		}
		return render.EncodePNG(&buf, img)
	})
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *Handler) sendStoreError(c *gin.Context, err error) {
	var ve validationError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		sendError(c, http.StatusNotFound, "Session not found", "")
	case errors.Is(err, errNoTrack):
		sendError(c, http.StatusConflict, "No track loaded", "upload a GPX file first")
	case errors.As(err, &ve):
		sendError(c, http.StatusBadRequest, "Validation failed", ve.Error())
	default:
		log.Printf("request %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		sendError(c, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred")
	}
}
