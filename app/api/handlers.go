package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"maven/app/service/assistant"
	"maven/app/service/braindump"
	"maven/app/service/conversation"
	"maven/app/service/search"
	"maven/app/service/store"
	"maven/app/service/voice"
	"maven/app/service/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type textRequest struct {
	Text string `json:"text"`
}

type toggleRequest struct {
	Category braindump.Category `json:"category"`
	Index    int                `json:"index"`
}

type stateResponse struct {
	State        assistant.State `json:"state"`
	Input        string          `json:"input"`
	VoiceEnabled bool            `json:"voiceEnabled"`
	Listening    bool            `json:"listening"`
}

type commitResponse struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) chat(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	exchange, err := s.assistant.Submit(c.UserContext(), req.Text)
	if err != nil {
		return assistantError(err)
	}

	return c.JSON(exchange)
}

func assistantError(err error) error {
	switch {
	case errors.Is(err, assistant.ErrBusy):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, assistant.ErrQueueFull), errors.Is(err, assistant.ErrClosed):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	return err
}

func (s *Server) transcript(c *fiber.Ctx) error {
	return c.JSON(s.assistant.Transcript().Turns())
}

// stream sends every turn as a server-sent event, starting with the history.
func (s *Server) stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	history, turns, cancel := s.assistant.Transcript().Follow(64)
	ctx := s.ctx

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for _, turn := range history {
			if err := writeTurn(w, turn); err != nil {
				return
			}
		}

		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case turn, ok := <-turns:
				if !ok {
					return
				}
				if err := writeTurn(w, turn); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

func writeTurn(w *bufio.Writer, turn conversation.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		slog.Error("Failed to encode turn", "error", err)
		return err
	}

	if _, err = fmt.Fprintf(w, "event: turn\ndata: %s\n\n", data); err != nil {
		return err
	}

	return w.Flush()
}

func (s *Server) state(c *fiber.Ctx) error {
	return c.JSON(stateResponse{
		State:        s.assistant.State(),
		Input:        s.assistant.Input(),
		VoiceEnabled: s.voice.Enabled(),
		Listening:    s.voice.Listening(),
	})
}

func (s *Server) setInput(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	s.assistant.SetInput(req.Text)

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) sendInput(c *fiber.Ctx) error {
	exchange, err := s.assistant.SendInput(c.UserContext())
	if err != nil {
		return assistantError(err)
	}

	return c.JSON(exchange)
}

func (s *Server) startVoice(c *fiber.Ctx) error {
	if err := s.voice.Start(s.ctx); err != nil {
		if errors.Is(err, voice.ErrDisabled) {
			return fiber.NewError(fiber.StatusNotImplemented, err.Error())
		}
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) stopVoice(c *fiber.Ctx) error {
	s.voice.Stop()

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) actions(c *fiber.Ctx) error {
	return c.JSON(s.registry.DescribeAll())
}

func (s *Server) extract(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ext, err := s.braindump.Extract(c.UserContext(), req.Text)
	if err != nil {
		if errors.Is(err, braindump.ErrEmptyInput) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		slog.Error("Brain dump extraction failed", "error", err)
		return fiber.NewError(fiber.StatusBadGateway, braindump.FailureMessage)
	}

	s.braindump.Session().Set(ext)

	return c.JSON(ext)
}

func (s *Server) toggle(c *fiber.Ctx) error {
	var req toggleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ext, err := s.braindump.Session().Toggle(req.Category, req.Index)
	switch {
	case errors.Is(err, braindump.ErrNothingPending):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, braindump.ErrNoSuchItem):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}

	return c.JSON(ext)
}

func (s *Server) commit(c *fiber.Ctx) error {
	ext, ok := s.braindump.Session().Take()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, braindump.ErrNothingPending.Error())
	}

	count, err := s.braindump.Commit(c.UserContext(), ext)
	if err != nil {
		slog.Error("Brain dump commit failed", "added", count, "error", err)

		// Whatever was not added stays pending so a retry does not duplicate items.
		if remaining := ext.Remaining(count); remaining.Selected() > 0 {
			s.braindump.Session().Set(remaining)
		}

		return c.Status(fiber.StatusInternalServerError).JSON(commitResponse{
			Count:   count,
			Message: braindump.Message(count),
			Error:   "failed to add every item to the workspace",
		})
	}

	return c.JSON(commitResponse{
		Count:   count,
		Message: braindump.Message(count),
	})
}

func (s *Server) discard(c *fiber.Ctx) error {
	s.braindump.Session().Discard()

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) snapshot(c *fiber.Ctx) error {
	return c.JSON(s.workspace.Snapshot())
}

func (s *Server) putBanner(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty banner")
	}

	err := s.workspace.SetBanner(c.UserContext(), c.Params("id"), store.Blob{
		Data:        bytes.Clone(body),
		ContentType: c.Get(fiber.HeaderContentType),
	})
	if errors.Is(err, workspace.ErrPageNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) getBanner(c *fiber.Ctx) error {
	blob, err := s.workspace.Banner(c.UserContext(), c.Params("id"))
	if errors.Is(err, workspace.ErrPageNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}

	if blob.ContentType != "" {
		c.Set(fiber.HeaderContentType, blob.ContentType)
	}

	return c.Send(blob.Data)
}

func (s *Server) searchNotes(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := s.search.Search(c.UserContext(), req.Text)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		slog.Error("Knowledge base search failed", "error", err)
		return fiber.NewError(fiber.StatusBadGateway, search.FailureMessage)
	}

	return c.JSON(result)
}

type classRequest struct {
	Name string `json:"name"`
}

type studentsRequest struct {
	Students []workspace.NewStudent `json:"students"`
}

type attendanceRequest struct {
	Status workspace.AttendanceStatus `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func attendanceError(err error) error {
	switch {
	case errors.Is(err, workspace.ErrClassNotFound), errors.Is(err, workspace.ErrStudentNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, workspace.ErrEmptyClassName),
		errors.Is(err, workspace.ErrInvalidStatus),
		errors.Is(err, workspace.ErrInvalidDate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return err
}

func (s *Server) addClass(c *fiber.Ctx) error {
	var req classRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	class, err := s.workspace.AddClass(c.UserContext(), req.Name)
	if err != nil {
		return attendanceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(class)
}

func (s *Server) deleteClass(c *fiber.Ctx) error {
	if err := s.workspace.DeleteClass(c.UserContext(), c.Params("id")); err != nil {
		return attendanceError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) addStudents(c *fiber.Ctx) error {
	var req studentsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	message, err := s.workspace.AddStudentsBatch(c.UserContext(), c.Params("id"), req.Students)
	if err != nil {
		return attendanceError(err)
	}

	return c.JSON(messageResponse{Message: message})
}

func (s *Server) deleteStudent(c *fiber.Ctx) error {
	if err := s.workspace.DeleteStudent(c.UserContext(), c.Params("id")); err != nil {
		return attendanceError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setAttendance(c *fiber.Ctx) error {
	var req attendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := s.workspace.SetAttendance(c.UserContext(), c.Params("date"), c.Params("student"), req.Status)
	if err != nil {
		return attendanceError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
