package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Field keys shared by every package that logs.
const (
	FieldService     = "service"
	FieldUserID      = "user_id"
	FieldOrderID     = "order_id"
	FieldOrderNumber = "order_number"
	FieldStep        = "step"
	FieldStatus      = "status"
	FieldDurationMS  = "duration_ms"
)

// New builds a JSON logger writing to out at the given level.
func New(service, level string, out io.Writer) (*logrus.Entry, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logrus.ParseLevel[%s]: %w", level, err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})

	return logger.WithField(FieldService, service), nil
}

const errorLocal = "request_error"

// RecordError attaches err to the request log line. Handlers call it when
// they answer with a message that hides the cause.
func RecordError(c *fiber.Ctx, err error) {
	c.Locals(errorLocal, err)
}

// Middleware logs one line per request once the handler chain has finished.
// userID may be nil; it is asked for the caller identity after the chain ran,
// so it sees whatever the auth middleware stored.
func Middleware(log logrus.FieldLogger, userID func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			if fe, ok := chainErr.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := logrus.Fields{
			"method":        c.Method(),
			"path":          c.Path(),
			FieldStatus:     status,
			FieldDurationMS: time.Since(start).Milliseconds(),
		}
		if userID != nil {
			if id := userID(c); id != "" {
				fields[FieldUserID] = id
			}
		}
		if err, ok := c.Locals(errorLocal).(error); ok {
			fields[logrus.ErrorKey] = err
		}

		entry := log.WithFields(fields)
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}

		return chainErr
	}
}
