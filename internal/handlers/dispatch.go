package handlers

import (
	"fmt"
	"time"

	"github.com/gymjs/muscle-selector/internal/dispatcher"
	"github.com/gymjs/muscle-selector/internal/session"
	"github.com/gymjs/muscle-selector/pkg/protocol"
)

// sessionHandler applies one command to a session.
type sessionHandler func(s *session.Session, e dispatcher.Event) error

// RegisterHandlers registers all editor commands with the dispatcher.
// Every command runs synchronously so replies carry the post-command state.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// gestures
	d.Register(protocol.TypePointerDown, s.withSession(protocol.TypePointerDown, s.handlePointerDown), dispatcher.Logged())
	d.Register(protocol.TypePointerMove, s.withSession(protocol.TypePointerMove, s.handlePointerMove))
	d.Register(protocol.TypePointerUp, s.withSession(protocol.TypePointerUp, s.handlePointerUp), dispatcher.Logged())
	d.Register(protocol.TypePointerLeave, s.withSession(protocol.TypePointerLeave, s.handlePointerLeave), dispatcher.Logged())
	d.Register(protocol.TypeClick, s.withSession(protocol.TypeClick, s.handleClick), dispatcher.Logged())

	// edit-mode actions
	d.Register(protocol.TypeRotate, s.withSession(protocol.TypeRotate, s.handleRotate), dispatcher.Logged())
	d.Register(protocol.TypeResize, s.withSession(protocol.TypeResize, s.handleResize), dispatcher.Logged())
	d.Register(protocol.TypeSetColor, s.withSession(protocol.TypeSetColor, s.handleSetColor), dispatcher.Logged())

	// view state
	d.Register(protocol.TypeToggleView, s.withSession(protocol.TypeToggleView, s.handleToggleView), dispatcher.Logged())
	d.Register(protocol.TypeSetEditMode, s.withSession(protocol.TypeSetEditMode, s.handleSetEditMode), dispatcher.Logged())
	d.Register(protocol.TypeClearSelection, s.withSession(protocol.TypeClearSelection, s.handleClearSelection), dispatcher.Logged())
	d.Register(protocol.TypeSetViewport, s.withSession(protocol.TypeSetViewport, s.handleSetViewport), dispatcher.Logged())

	// persistence
	d.Register(protocol.TypeSave, s.withSession(protocol.TypeSave, s.handleSave), dispatcher.Logged())
	d.Register(protocol.TypeResetLayout, s.withSession(protocol.TypeResetLayout, s.handleResetLayout), dispatcher.Logged())
}

// withSession resolves the event's session, runs h and answers with the
// session's state.
func (s *Service) withSession(command string, h sessionHandler) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		start := time.Now()
		sess, err := s.Session(e.SessionID)
		if err == nil {
			err = h(sess, e)
		}
		s.handled.Inc()
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordCommand(command, e.SessionID, time.Since(start), err)
		}
		if err != nil {
			return nil, err
		}
		return sess.State(), nil
	}
}

func (s *Service) handlePointerDown(sess *session.Session, e dispatcher.Event) error {
	p, err := s.deps.Parser.ParsePointer(e.Payload, true)
	if err != nil {
		return err
	}
	sess.PointerDown(p.LabelID, p.Client)
	return nil
}

func (s *Service) handlePointerMove(sess *session.Session, e dispatcher.Event) error {
	p, err := s.deps.Parser.ParsePointer(e.Payload, false)
	if err != nil {
		return err
	}
	sess.PointerMove(p.Client)
	return nil
}

func (s *Service) handlePointerUp(sess *session.Session, e dispatcher.Event) error {
	s.recordDrag(sess, sess.PointerUp)
	return nil
}

func (s *Service) handlePointerLeave(sess *session.Session, e dispatcher.Event) error {
	s.recordDrag(sess, sess.PointerLeave)
	return nil
}

func (s *Service) recordDrag(sess *session.Session, end func() (session.DragResult, bool)) {
	res, ok := end()
	if !ok || s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.RecordDrag(sess.ID(), res.LabelID, res.From, res.To)
}

func (s *Service) handleClick(sess *session.Session, e dispatcher.Event) error {
	id, err := s.deps.Parser.ParseLabel(e.Payload)
	if err != nil {
		return err
	}
	sess.Click(id)
	return nil
}

func (s *Service) handleRotate(sess *session.Session, e dispatcher.Event) error {
	id, err := s.deps.Parser.ParseLabel(e.Payload)
	if err != nil {
		return err
	}
	sess.Rotate(id)
	return nil
}

func (s *Service) handleResize(sess *session.Session, e dispatcher.Event) error {
	r, err := s.deps.Parser.ParseResize(e.Payload)
	if err != nil {
		return err
	}
	sess.Resize(r.LabelID, r.Direction)
	return nil
}

func (s *Service) handleSetColor(sess *session.Session, e dispatcher.Event) error {
	c, err := s.deps.Parser.ParseColor(e.Payload)
	if err != nil {
		return err
	}
	sess.SetColor(c.LabelID, c.Token)
	return nil
}

func (s *Service) handleToggleView(sess *session.Session, e dispatcher.Event) error {
	sess.ToggleView()
	return nil
}

func (s *Service) handleSetEditMode(sess *session.Session, e dispatcher.Event) error {
	enabled, err := s.deps.Parser.ParseEditMode(e.Payload)
	if err != nil {
		return err
	}
	if enabled == nil {
		sess.ToggleEditMode()
		return nil
	}
	sess.SetEditMode(*enabled)
	return nil
}

func (s *Service) handleClearSelection(sess *session.Session, e dispatcher.Event) error {
	sess.ClearSelection()
	return nil
}

func (s *Service) handleSetViewport(sess *session.Session, e dispatcher.Event) error {
	vp, err := s.deps.Parser.ParseViewport(e.Payload)
	if err != nil {
		return err
	}
	sess.SetViewport(vp)
	return nil
}

func (s *Service) handleSave(sess *session.Session, e dispatcher.Event) error {
	err := sess.Save()
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordSave(sess.ID(), sess.Layout().Len(), err)
	}
	if err != nil {
		s.writeLog("handleSave", fmt.Sprintf("Error saving layout for session %s: %v", sess.ID(), err), "ERROR")
		if s.deps.Reporter != nil {
			s.deps.Reporter.CaptureException(err, map[string]string{
				"session": sess.ID(),
				"slot":    s.gateway.Key(),
			})
		}
		return err
	}
	s.writeLog("handleSave", fmt.Sprintf("Saved layout for session %s", sess.ID()), "INFO")
	return nil
}

func (s *Service) handleResetLayout(sess *session.Session, e dispatcher.Event) error {
	sess.ResetLayout()
	return nil
}
