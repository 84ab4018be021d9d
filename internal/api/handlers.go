package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediarr/mediarr/internal/sensor"
)

// sensorResponse is the wire shape of one sensor.
type sensorResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Snapshot sensor.Snapshot `json:"snapshot"`
}

func toSensorResponse(s sensor.Sensor) sensorResponse {
	return sensorResponse{
		ID:       s.UniqueID(),
		Name:     s.Name(),
		Snapshot: s.Snapshot(),
	}
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":     Version,
		"time":        time.Now().UTC().Format(time.RFC3339),
		"sensorCount": len(s.registry.All()),
		"wsClients":   s.hub.ClientCount(),
	})
}

func (s *Server) listSensors(c echo.Context) error {
	sensors := s.registry.All()
	out := make([]sensorResponse, 0, len(sensors))
	for _, sn := range sensors {
		out = append(out, toSensorResponse(sn))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getSensor(c echo.Context) error {
	sn, ok := s.registry.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "sensor not found")
	}
	return c.JSON(http.StatusOK, toSensorResponse(sn))
}

// refreshSensor triggers an out-of-schedule refresh cycle. The cycle runs
// asynchronously; clients observe the result via the push channel or by
// polling the sensor.
func (s *Server) refreshSensor(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.registry.Get(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "sensor not found")
	}
	if err := s.scheduler.RunNow(id); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) listTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.scheduler.ListTasks())
}
