// Package library persists the user's saved books in a local Badger database.
// The suggestion side of the engine only reads from it; writes come from the
// embedding application when the user saves, rates, or finishes a book.
package library

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookmarkedapp/bookmarked-engine/domain"
	"github.com/bookmarkedapp/bookmarked-engine/internal/errors"
	"github.com/bookmarkedapp/bookmarked-engine/internal/id"
	"github.com/bookmarkedapp/bookmarked-engine/internal/validation"
)

const (
	savedPrefix   = "saved:"
	bookIdxPrefix = "saved:idx:book:"
)

func savedKey(entryID string) []byte {
	return []byte(savedPrefix + entryID)
}

func bookIndexKey(bookID string) []byte {
	return []byte(bookIdxPrefix + bookID)
}

// Store wraps a Badger database holding saved-library entries.
type Store struct {
	db       *badger.DB
	logger   *slog.Logger
	validate *validation.Validator
}

// Open opens (or creates) the library database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open library database: %w", err)
	}

	return &Store{
		db:       db,
		logger:   logger,
		validate: validation.New(),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// saveRequest carries the validated fields of a new entry.
type saveRequest struct {
	BookID string `json:"book_id" validate:"required"`
	Title  string `json:"title" validate:"required"`
}

// Save adds a book to the library with status not_started. Saving a book
// that is already in the library is a validation error; use the entry
// update methods instead.
func (s *Store) Save(book domain.Book) (*domain.SavedBook, error) {
	if err := s.validate.Validate(saveRequest{BookID: book.ID, Title: book.Title}); err != nil {
		return nil, err
	}
	if s.IsSaved(book.ID) {
		return nil, errors.Validationf("book %q is already saved", book.Title)
	}

	entryID, err := id.Generate("sav")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate entry id")
	}

	now := time.Now().UTC()
	entry := domain.SavedBook{
		ID:        entryID,
		BookID:    book.ID,
		Book:      book,
		Status:    domain.StatusNotStarted,
		SavedAt:   now,
		UpdatedAt: now,
	}

	if err := s.put(&entry); err != nil {
		return nil, err
	}
	s.logger.Info("book saved", "entry_id", entry.ID, "title", book.Title)
	return &entry, nil
}

// statusRequest validates a status transition.
type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=not_started reading read quit"`
}

// UpdateStatus moves an entry through the reading lifecycle. Entering
// reading stamps StartedAt once; entering read stamps FinishedAt.
func (s *Store) UpdateStatus(entryID string, status domain.ReadingStatus) (*domain.SavedBook, error) {
	if err := s.validate.Validate(statusRequest{Status: string(status)}); err != nil {
		return nil, err
	}

	entry, err := s.Get(entryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry.Status = status
	entry.UpdatedAt = now
	switch status {
	case domain.StatusReading:
		if entry.StartedAt == nil {
			entry.StartedAt = &now
		}
	case domain.StatusRead:
		if entry.StartedAt == nil {
			entry.StartedAt = &now
		}
		entry.FinishedAt = &now
	}

	if err := s.put(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ratingRequest validates a star rating.
type ratingRequest struct {
	Rating int `json:"rating" validate:"gte=0,lte=5"`
}

// UpdateRating sets the user's star rating, 0 clearing it.
func (s *Store) UpdateRating(entryID string, rating int) (*domain.SavedBook, error) {
	if err := s.validate.Validate(ratingRequest{Rating: rating}); err != nil {
		return nil, err
	}

	entry, err := s.Get(entryID)
	if err != nil {
		return nil, err
	}

	entry.UserRating = rating
	entry.UpdatedAt = time.Now().UTC()

	if err := s.put(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateNotes replaces the user's notes on an entry.
func (s *Store) UpdateNotes(entryID, notes string) (*domain.SavedBook, error) {
	entry, err := s.Get(entryID)
	if err != nil {
		return nil, err
	}

	entry.Notes = notes
	entry.UpdatedAt = time.Now().UTC()

	if err := s.put(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry and its book index.
func (s *Store) Delete(entryID string) error {
	entry, err := s.Get(entryID)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(savedKey(entryID)); err != nil {
			return err
		}
		return txn.Delete(bookIndexKey(entry.BookID))
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete library entry")
	}
	s.logger.Info("book removed", "entry_id", entryID, "title", entry.Book.Title)
	return nil
}

// Get returns one entry by its id.
func (s *Store) Get(entryID string) (*domain.SavedBook, error) {
	var entry domain.SavedBook
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(savedKey(entryID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.NotFoundf("library entry %s not found", entryID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "read library entry")
	}
	return &entry, nil
}

// GetByBookID returns the entry for a catalog book, if saved.
func (s *Store) GetByBookID(bookID string) (*domain.SavedBook, error) {
	var entryID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bookIndexKey(bookID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entryID = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.NotFoundf("book %s is not saved", bookID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "read book index")
	}
	return s.Get(entryID)
}

// IsSaved reports whether a catalog book is in the library.
func (s *Store) IsSaved(bookID string) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(bookIndexKey(bookID))
		return err
	})
	return err == nil
}

// List returns every entry, most recently saved first.
func (s *Store) List() ([]domain.SavedBook, error) {
	var entries []domain.SavedBook
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(savedPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if strings.HasPrefix(string(item.Key()), bookIdxPrefix) {
				continue
			}
			var entry domain.SavedBook
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list library entries")
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SavedAt.After(entries[j].SavedAt)
	})
	return entries, nil
}

// put writes an entry and its book index in one transaction.
func (s *Store) put(entry *domain.SavedBook) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode library entry")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(savedKey(entry.ID), data); err != nil {
			return err
		}
		return txn.Set(bookIndexKey(entry.BookID), []byte(entry.ID))
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "write library entry")
	}
	return nil
}
