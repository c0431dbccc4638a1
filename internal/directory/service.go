// Package directory implements the agency registry: the HTTP service
// agencies register with, and the client aggregators discover agencies
// through.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/JoeWakeling/newswire/internal/model"
)

const agencyKeyPrefix = "agency:"

// record is the stored form of a registration. Seq preserves registration
// order across the unordered key space.
type record struct {
	model.Agency
	Seq uint64 `json:"seq"`
}

// Service is the directory HTTP server backed by BadgerDB.
type Service struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *zap.Logger
	router *mux.Router
	server *http.Server
}

// OpenDB opens the registration database at path.
func OpenDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	return badger.Open(opts)
}

func NewService(db *badger.DB, logger *zap.Logger) (*Service, error) {
	seq, err := db.GetSequence([]byte("registration-seq"), 64)
	if err != nil {
		return nil, fmt.Errorf("opening registration sequence: %w", err)
	}
	s := &Service{
		db:     db,
		seq:    seq,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.routes()
	return s, nil
}

func (s *Service) routes() {
	s.router.HandleFunc("/api/directory", s.handleList).Methods("GET")
	s.router.HandleFunc("/api/directory", s.handleRegister).Methods("POST")
	s.router.HandleFunc("/api/directory/", s.handleRegister).Methods("POST")
}

func (s *Service) Handler() http.Handler {
	return s.router
}

func (s *Service) Start(port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Directory service listening", zap.String("addr", port))
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	s.seq.Release()
	return s.server.Shutdown(ctx)
}

// handleRegister upserts an agency keyed by its code. A re-registration
// keeps the agency's original position in the listing.
func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var agency model.Agency
	if err := json.NewDecoder(r.Body).Decode(&agency); err != nil {
		http.Error(w, "invalid JSON body", http.StatusServiceUnavailable)
		return
	}
	if agency.Name == "" || agency.URL == "" || agency.Code == "" {
		http.Error(w, "agency_name, url and agency_code are all required", http.StatusServiceUnavailable)
		return
	}

	key := []byte(agencyKeyPrefix + agency.Code)
	err := s.db.Update(func(txn *badger.Txn) error {
		rec := record{Agency: agency}

		item, err := txn.Get(key)
		switch err {
		case nil:
			var prev record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &prev)
			}); err != nil {
				return err
			}
			rec.Seq = prev.Seq
		case badger.ErrKeyNotFound:
			next, err := s.seq.Next()
			if err != nil {
				return err
			}
			rec.Seq = next
		default:
			return err
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		s.logger.Error("Failed to register agency", zap.String("code", agency.Code), zap.Error(err))
		http.Error(w, "unable to register agency", http.StatusServiceUnavailable)
		return
	}

	s.logger.Info("Agency registered",
		zap.String("code", agency.Code),
		zap.String("url", agency.URL))
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "agency %s registered", agency.Code)
}

// handleList returns every registered agency in registration order.
func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	var records []record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(agencyKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec record
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to list agencies", zap.Error(err))
		http.Error(w, "unable to list agencies", http.StatusServiceUnavailable)
		return
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	agencies := make([]model.Agency, 0, len(records))
	for _, rec := range records {
		agencies = append(agencies, rec.Agency)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(agencies)
}
