package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
	"github.com/caffeinsmuggler/timesheet-ai/internal/storage"
)

// Store persists session documents, source images, and finalize snapshots
// under the data directory. Serialization is JSON; every write goes through
// the atomic provider so readers never observe partial documents.
type Store struct {
	files storage.Provider
}

// NewStore creates a session store over the given file provider.
func NewStore(files storage.Provider) *Store {
	return &Store{files: files}
}

func sessionPath(id string) string {
	return path.Join(storage.SessionsDir, id+".json")
}

func exportPath(sourceFileID string) string {
	return path.Join(storage.ResultsDir, sourceFileID+"_final.json")
}

// ImagePath returns the data-relative path for a session's source image.
func ImagePath(sourceFileID string) string {
	return path.Join(storage.ImagesDir, sourceFileID+".png")
}

// Save writes the session document.
func (s *Store) Save(sess *models.ReviewSession) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("review: marshal session %s: %w", sess.ID, err)
	}
	return s.files.Write(sessionPath(sess.ID), data)
}

// ListSessionIDs returns the ids of every persisted session document.
func (s *Store) ListSessionIDs() ([]string, error) {
	paths, err := s.files.List(storage.SessionsDir, ".json")
	if err != nil {
		return nil, fmt.Errorf("review: list sessions: %w", err)
	}
	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		base := path.Base(p)
		ids = append(ids, base[:len(base)-len(".json")])
	}
	return ids, nil
}

// Load reads a session document by id.
func (s *Store) Load(id string) (*models.ReviewSession, error) {
	data, err := s.files.Read(sessionPath(id))
	if err != nil {
		if errorIsNotExist(err) {
			return nil, fmt.Errorf("%w: session %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	var sess models.ReviewSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("review: decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Delete removes a session document. A missing document maps to not-found.
func (s *Store) Delete(id string) error {
	if err := s.files.Delete(sessionPath(id)); err != nil {
		if errorIsNotExist(err) {
			return fmt.Errorf("%w: session %s", apperr.ErrNotFound, id)
		}
		return err
	}
	return nil
}

// SaveImage stores the rectified source image for a session.
func (s *Store) SaveImage(sourceFileID string, data []byte) (string, error) {
	p := ImagePath(sourceFileID)
	if err := s.files.Write(p, data); err != nil {
		return "", err
	}
	return p, nil
}

// ReadImage returns the raw bytes of a session's source image.
func (s *Store) ReadImage(sess *models.ReviewSession) ([]byte, error) {
	data, err := s.files.Read(sess.ImagePath)
	if err != nil {
		if errorIsNotExist(err) {
			return nil, fmt.Errorf("%w: image for session %s", apperr.ErrNotFound, sess.ID)
		}
		return nil, err
	}
	return data, nil
}

// SaveExport writes the immutable finalize snapshot for a session's source
// file.
func (s *Store) SaveExport(exp models.Export) error {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("review: marshal export %s: %w", exp.SessionID, err)
	}
	return s.files.Write(exportPath(exp.SourceFileID), data)
}

func errorIsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
