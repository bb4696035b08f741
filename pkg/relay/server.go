package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gwillem/jojo/internal/log"
	"github.com/gwillem/jojo/pkg/robot"
)

// Publisher sends a payload to an MQTT topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// robotState is a configured robot plus its last reported status.
type robotState struct {
	cfg      robot.RobotConfig
	battery  int
	online   bool
	lastSeen *time.Time
}

// Server is the command relay: it accepts console commands over HTTP and
// publishes them to the robots over MQTT.
type Server struct {
	e   *echo.Echo
	pub Publisher
	now func() time.Time

	mu     sync.RWMutex
	robots map[string]*robotState
}

// NewServer creates a relay for the given robots.
func NewServer(robots []robot.RobotConfig, pub Publisher) *Server {
	s := &Server{
		e:      echo.New(),
		pub:    pub,
		now:    time.Now,
		robots: make(map[string]*robotState, len(robots)),
	}
	for _, r := range robots {
		s.robots[r.ID] = &robotState{cfg: r, battery: 100}
	}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestID())
	s.RegisterRoutes(s.e)
	return s
}

// RegisterRoutes adds the relay API to e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.HandleHealth)

	api := e.Group("/api")
	api.POST("/robot/:id/command", s.HandleCommand)
	api.GET("/robot/:id/status", s.HandleStatus)
	api.POST("/mqtt/publish", s.HandlePublish)
}

// Handler returns the HTTP handler of the relay.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves the relay on addr until Shutdown.
func (s *Server) Start(addr string) error {
	log.Info("relay listening", "addr", addr, "robots", len(s.robots))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve relay: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
}

// HandleCommand publishes a drive or action command on the robot's topic.
func (s *Server) HandleCommand(c echo.Context) error {
	id := c.Param("id")
	st, ok := s.robot(id)
	if !ok {
		return c.JSON(http.StatusNotFound, CommandResponse{Error: "robot not found"})
	}
	if !st.cfg.Active {
		return c.JSON(http.StatusBadRequest, CommandResponse{Error: "robot inactive"})
	}

	var req CommandRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, CommandResponse{Error: "invalid request body"})
	}
	if req.Action == "" {
		return c.JSON(http.StatusBadRequest, CommandResponse{Error: "action not specified"})
	}

	payload, err := json.Marshal(MQTTCommand{
		Action:    req.Action,
		Value:     req.Value,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, CommandResponse{Error: "internal server error"})
	}

	topic := st.cfg.Topic() + "/command"
	if err := s.pub.Publish(topic, payload); err != nil {
		log.Error("publish command", "robot", st.cfg.Name, "action", req.Action, "err", err)
		return c.JSON(http.StatusInternalServerError, CommandResponse{Error: "failed to reach robot"})
	}

	log.Info("command sent", "robot", st.cfg.Name, "action", req.Action, "value", req.Value)
	return c.JSON(http.StatusOK, CommandResponse{
		Success: true,
		Message: fmt.Sprintf("command %s sent to %s", req.Action, st.cfg.Name),
		RobotID: id,
		Action:  req.Action,
		Value:   req.Value,
	})
}

// HandleStatus returns the robot's last known status.
func (s *Server) HandleStatus(c echo.Context) error {
	id := c.Param("id")

	s.mu.RLock()
	st, ok := s.robots[id]
	var rs RobotStatus
	if ok {
		rs = RobotStatus{
			ID:           st.cfg.ID,
			Name:         st.cfg.Name,
			SerialNumber: st.cfg.SerialNumber,
			IsOnline:     st.online,
			IsActive:     st.cfg.Active,
			BatteryLevel: st.battery,
			LastSeen:     st.lastSeen,
		}
	}
	s.mu.RUnlock()

	if !ok {
		return c.JSON(http.StatusNotFound, StatusResponse{Error: "robot not found"})
	}
	return c.JSON(http.StatusOK, StatusResponse{Success: true, Robot: &rs})
}

// HandlePublish forwards a raw payload to an arm topic.
func (s *Server) HandlePublish(c echo.Context) error {
	var req PublishRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, CommandResponse{Error: "invalid request body"})
	}
	if req.Topic == "" || len(req.Payload) == 0 {
		return c.JSON(http.StatusBadRequest, CommandResponse{Error: "topic and payload are required"})
	}

	if err := s.pub.Publish(req.Topic, req.Payload); err != nil {
		log.Error("publish", "topic", req.Topic, "err", err)
		return c.JSON(http.StatusInternalServerError, CommandResponse{Error: "failed to publish"})
	}
	log.Debug("published", "topic", req.Topic)
	return c.JSON(http.StatusOK, CommandResponse{Success: true})
}

// HandleStatusReport applies a message received on a robot status topic.
// Topics that match no configured robot are ignored.
func (s *Server) HandleStatusReport(topic string, payload []byte) error {
	base := strings.TrimSuffix(topic, "/status")
	if base == topic {
		return fmt.Errorf("not a status topic: %s", topic)
	}

	var rep StatusReport
	if err := json.Unmarshal(payload, &rep); err != nil {
		return fmt.Errorf("decode status report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.robots {
		if st.cfg.Topic() != base {
			continue
		}
		if rep.BatteryLevel != nil {
			st.battery = *rep.BatteryLevel
		}
		st.online = true
		if rep.IsOnline != nil {
			st.online = *rep.IsOnline
		}
		seen := s.now()
		st.lastSeen = &seen
		return nil
	}
	return nil
}

func (s *Server) robot(id string) (robotState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.robots[id]
	if !ok {
		return robotState{}, false
	}
	return *st, true
}
