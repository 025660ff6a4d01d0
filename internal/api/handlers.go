// internal/api/handlers.go
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/titovskiy/NeptunSmart/internal/registers"
	"github.com/titovskiy/NeptunSmart/internal/session"
	"github.com/titovskiy/NeptunSmart/internal/writer"
)

// ---- views ----

type switchView struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	On        *bool  `json:"on"`
	Available bool   `json:"available"`
}

type selectView struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Option  *string  `json:"option"`
	Options []string `json:"options"`
}

type devicesView struct {
	Counters        []int `json:"counters"`
	WirelessSensors []int `json:"wireless_sensors"`
	LeakLines       []int `json:"leak_lines"`
}

// ---- reads ----

func (s *Server) getSnapshot(c *gin.Context) {
	snap := s.deps.Controller.Current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getStatus(c *gin.Context) {
	if s.deps.Status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "status disabled"})
		return
	}
	c.JSON(http.StatusOK, s.deps.Status.Snapshot())
}

func (s *Server) getDevices(c *gin.Context) {
	snap := s.deps.Controller.Current()
	c.JSON(http.StatusOK, devicesView{
		Counters:        snap.InstalledCounters(),
		WirelessSensors: snap.InstalledWirelessSensors(),
		LeakLines:       snap.DetectedLeakLines(),
	})
}

func (s *Server) getSwitches(c *gin.Context) {
	snap := s.deps.Controller.Current()
	alarm, alarmKnown := snap.Raw("alarm_mode_raw")

	out := []switchView{}
	for _, sw := range writer.Switches(snap.InstalledCounters()) {
		v := switchView{Key: sw.Key, Name: sw.Name, Available: !sw.RequiresDualZone}
		if alarmKnown {
			v.Available = sw.Available(alarm)
		}
		if word, ok := snap.Raw(sw.DataKey); ok {
			on := sw.IsOn(word)
			v.On = &on
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getSelects(c *gin.Context) {
	snap := s.deps.Controller.Current()

	out := []selectView{}
	for _, sel := range writer.Selects(snap.InstalledCounters(), snap.InstalledWirelessSensors()) {
		v := selectView{Key: sel.Key, Name: sel.Name, Options: sel.Labels()}
		if word, ok := snap.Raw(sel.DataKey); ok {
			if label, ok := sel.Current(word); ok {
				v.Option = &label
			}
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getCounterHistory(c *gin.Context) {
	if s.deps.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history disabled"})
		return
	}
	idx, ok := counterIndex(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	rows, err := s.deps.History.History(c.Request.Context(), idx, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ---- writes ----

func (s *Server) putSwitch(c *gin.Context) {
	var body struct {
		On *bool `json:"on"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.On == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `body must be {"on": true|false}`})
		return
	}
	if err := s.deps.Controller.SetSwitch(c.Request.Context(), c.Param("key"), *body.On); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) putSelect(c *gin.Context) {
	var body struct {
		Option string `json:"option"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `body must be {"option": "<label>"}`})
		return
	}
	if err := s.deps.Controller.SelectOption(c.Request.Context(), c.Param("key"), body.Option); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) putCounterStep(c *gin.Context) {
	idx, ok := counterIndex(c)
	if !ok {
		return
	}
	var body struct {
		Step *int `json:"step"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Step == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `body must be {"step": 1|10|100}`})
		return
	}
	if err := s.deps.Controller.WriteCounterStep(c.Request.Context(), idx, *body.Step); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) putCounterCalibration(c *gin.Context) {
	idx, ok := counterIndex(c)
	if !ok {
		return
	}
	var body struct {
		Value *float64 `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `body must be {"value": <m3>}`})
		return
	}
	if err := s.deps.Controller.WriteCounterCalibration(c.Request.Context(), idx, *body.Value); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) postRefresh(c *gin.Context) {
	s.deps.Controller.RequestRefresh()
	c.Status(http.StatusAccepted)
}

// ---- helpers ----

func counterIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 1 || idx > registers.Counters {
		c.JSON(http.StatusBadRequest, gin.H{"error": "counter index must be 1..8"})
		return 0, false
	}
	return idx, true
}

// fail maps an operation error onto an HTTP status.
func (s *Server) fail(c *gin.Context, err error) {
	var ve *writer.ValidationError

	code := http.StatusBadGateway
	switch {
	case errors.As(err, &ve):
		code = http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		code = http.StatusServiceUnavailable
	}

	if code != http.StatusBadRequest {
		s.log.Warn().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
