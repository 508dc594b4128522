package server

import (
	"context"
)

// Shutdown stops accepting requests and waits for open ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.E.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("Admin server stopped")
	return nil
}
