package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/platform/storage"
	"github.com/benetrust/trustadmin-backend/internal/repos"
	"github.com/benetrust/trustadmin-backend/internal/types"
)

const (
	MimeCSV  = "text/csv"
	MimeXLS  = "application/vnd.ms-excel"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const parseCacheTTL = 15 * time.Minute

type ParseResult struct {
	Rows        [][]string `json:"rows"`
	ColumnCount int        `json:"column_count"`
}

// ParserService is the file intake and parsing side of the feed pipeline:
// mime gating, storage, and tabular extraction for preview and processing.
type ParserService interface {
	Upload(ctx context.Context, wizardID, ownerID uuid.UUID, originalName, mime string, file io.Reader, size int64) (*types.StoredFile, error)
	GetFile(ctx context.Context, fileID uuid.UUID) (*types.StoredFile, error)
	Parse(ctx context.Context, fileID uuid.UUID, previewRowLimit int) (*ParseResult, error)
	ParseAll(ctx context.Context, fileID uuid.UUID) (*ParseResult, error)
	Delete(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error
	FileExists(ctx context.Context, fileID uuid.UUID) bool
}

type parserService struct {
	db             *gorm.DB
	log            *logger.Logger
	fileStore      storage.FileStore
	storedFileRepo repos.StoredFileRepo
	cache          *redis.Client
}

func NewParserService(db *gorm.DB, baseLog *logger.Logger, fileStore storage.FileStore, storedFileRepo repos.StoredFileRepo, cache *redis.Client) ParserService {
	return &parserService{
		db:             db,
		log:            baseLog.With("service", "ParserService"),
		fileStore:      fileStore,
		storedFileRepo: storedFileRepo,
		cache:          cache,
	}
}

func allowedMime(mime string) bool {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case MimeCSV, MimeXLS, MimeXLSX:
		return true
	}
	return false
}

func (s *parserService) Upload(ctx context.Context, wizardID, ownerID uuid.UUID, originalName, mime string, file io.Reader, size int64) (*types.StoredFile, error) {
	if !allowedMime(mime) {
		return nil, apierr.BadRequest(apierr.CodeUnsupportedFileType,
			fmt.Errorf("mime type %q is not an accepted spreadsheet format", mime))
	}

	sf := &types.StoredFile{
		ID:           uuid.New(),
		WizardID:     wizardID,
		OwnerID:      ownerID,
		OriginalName: originalName,
		Mime:         strings.ToLower(strings.TrimSpace(mime)),
		SizeBytes:    size,
	}
	sf.StorageKey = fmt.Sprintf("wizards/%s/%s", wizardID, sf.ID)

	if err := s.fileStore.Store(ctx, sf.StorageKey, file); err != nil {
		s.log.Error("Failed to store uploaded file", "error", err, "wizard_id", wizardID)
		return nil, err
	}
	if err := s.storedFileRepo.Create(ctx, nil, sf); err != nil {
		// Keep the store and DB in step: undo the object write.
		if delErr := s.fileStore.Delete(ctx, sf.StorageKey); delErr != nil {
			s.log.Warn("Failed to remove orphaned object after DB error", "error", delErr, "storage_key", sf.StorageKey)
		}
		return nil, err
	}
	s.log.Info("Stored feed file", "wizard_id", wizardID, "file_id", sf.ID, "size_bytes", size)
	return sf, nil
}

func (s *parserService) GetFile(ctx context.Context, fileID uuid.UUID) (*types.StoredFile, error) {
	sf, err := s.storedFileRepo.GetByID(ctx, nil, fileID)
	if err != nil {
		return nil, apierr.NotFound(apierr.CodeNotFound, fmt.Errorf("file %s not found", fileID))
	}
	return sf, nil
}

func (s *parserService) Parse(ctx context.Context, fileID uuid.UUID, previewRowLimit int) (*ParseResult, error) {
	full, err := s.ParseAll(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if previewRowLimit <= 0 || previewRowLimit >= len(full.Rows) {
		return full, nil
	}
	return &ParseResult{Rows: full.Rows[:previewRowLimit], ColumnCount: full.ColumnCount}, nil
}

func (s *parserService) ParseAll(ctx context.Context, fileID uuid.UUID) (*ParseResult, error) {
	if cached := s.cacheGet(ctx, fileID); cached != nil {
		return cached, nil
	}

	sf, err := s.storedFileRepo.GetByID(ctx, nil, fileID)
	if err != nil {
		return nil, apierr.NotFound(apierr.CodeNotFound, fmt.Errorf("file %s not found", fileID))
	}
	raw, err := s.fileStore.Retrieve(ctx, sf.StorageKey)
	if err != nil {
		s.log.Error("Failed to retrieve stored file", "error", err, "file_id", fileID)
		return nil, err
	}

	var rows [][]string
	switch sf.Mime {
	case MimeCSV:
		rows, err = parseCSV(raw)
	case MimeXLSX:
		rows, err = parseSpreadsheet(raw)
	case MimeXLS:
		// Legacy-excel uploads are routinely mislabeled CSV exports; try the
		// spreadsheet reader first and fall back to CSV.
		rows, err = parseSpreadsheet(raw)
		if err != nil {
			rows, err = parseCSV(raw)
		}
	default:
		return nil, apierr.BadRequest(apierr.CodeUnsupportedFileType,
			fmt.Errorf("stored file has unsupported mime %q", sf.Mime))
	}
	if err != nil {
		return nil, apierr.BadRequest(apierr.CodeParseFailure, fmt.Errorf("failed to parse %q: %w", sf.OriginalName, err))
	}

	result := normalizeRows(rows)
	s.cachePut(ctx, fileID, result)
	return result, nil
}

func (s *parserService) Delete(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error {
	sf, err := s.storedFileRepo.GetByID(ctx, tx, fileID)
	if err != nil {
		return apierr.NotFound(apierr.CodeNotFound, fmt.Errorf("file %s not found", fileID))
	}
	if err := s.storedFileRepo.FullDeleteByID(ctx, tx, fileID); err != nil {
		return err
	}
	if err := s.fileStore.Delete(ctx, sf.StorageKey); err != nil {
		s.log.Warn("Failed to delete stored object", "error", err, "storage_key", sf.StorageKey)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, parseCacheKey(fileID)).Err()
	}
	return nil
}

func (s *parserService) FileExists(ctx context.Context, fileID uuid.UUID) bool {
	sf, err := s.storedFileRepo.GetByID(ctx, nil, fileID)
	if err != nil {
		return false
	}
	exists, err := s.fileStore.Exists(ctx, sf.StorageKey)
	return err == nil && exists
}

func parseCSV(raw []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func parseSpreadsheet(raw []byte) ([][]string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	// First sheet only.
	return book.GetRows(sheets[0])
}

// normalizeRows drops blank rows and pads every remaining row to a uniform
// column count so column indices stay meaningful for mapping.
func normalizeRows(rows [][]string) *ParseResult {
	columnCount := 0
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		blank := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}
		if len(row) > columnCount {
			columnCount = len(row)
		}
		kept = append(kept, row)
	}
	for i, row := range kept {
		if len(row) < columnCount {
			padded := make([]string, columnCount)
			copy(padded, row)
			kept[i] = padded
		}
	}
	return &ParseResult{Rows: kept, ColumnCount: columnCount}
}

func parseCacheKey(fileID uuid.UUID) string {
	return "feed:parsed:" + fileID.String()
}

func (s *parserService) cacheGet(ctx context.Context, fileID uuid.UUID) *ParseResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, parseCacheKey(fileID)).Bytes()
	if err != nil {
		return nil
	}
	var result ParseResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return &result
}

func (s *parserService) cachePut(ctx context.Context, fileID uuid.UUID, result *ParseResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, parseCacheKey(fileID), raw, parseCacheTTL).Err(); err != nil {
		s.log.Debug("Parse cache write failed", "error", err, "file_id", fileID)
	}
}
