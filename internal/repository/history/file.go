package history

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alarm-scheduler/internal/config"
	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// Record is one journal line: an alarm snapshot and when it was delivered.
type Record struct {
	// FiredAt is the wall time at which the alarm was announced.
	FiredAt time.Time
	// Alarm is the snapshot that was delivered to listeners.
	Alarm *domain.Alarm
}

// Repository defines journal operations.
type Repository interface {
	Append(ctx context.Context, record *Record) error
	Load(ctx context.Context) ([]*Record, error)
}

// FileRepository persists records to a JSON-lines file on disk.
type FileRepository struct {
	// path is the filesystem location of the journal.
	path string
	// mu serializes writers and readers.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the journal file does not exist yet.
	ErrNotFound = errors.New("history not found")
	// errRecordIsNotSet is returned when Append gets a nil record.
	errRecordIsNotSet = errors.New("record is not set")
	// errMalformedRecord is returned when a journal line lacks required fields.
	errMalformedRecord = errors.New("malformed record")
)

// NewFileRepository creates a repository that appends to the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Append writes one record at the end of the journal.
func (r *FileRepository) Append(_ context.Context, record *Record) error {
	if record == nil || record.Alarm == nil {
		return errRecordIsNotSet
	}

	data, err := protojson.Marshal(toProto(record))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}

	data = append(data, '\n')

	if _, err = file.Write(data); err != nil {
		_ = file.Close()

		return fmt.Errorf("write history file: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close history file: %w", err)
	}

	return nil
}

// Load reads every record from the journal in the order they were written.
func (r *FileRepository) Load(_ context.Context) ([]*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read history file: %w", err)
	}

	var (
		records []*Record
		scanner = bufio.NewScanner(bytes.NewReader(contents))
		line    = 0
	)

	for scanner.Scan() {
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var protoRecord structpb.Struct
		if err = protojson.Unmarshal(raw, &protoRecord); err != nil {
			return nil, fmt.Errorf("decode history line %d: %w", line, err)
		}

		record, err := fromProto(&protoRecord)
		if err != nil {
			return nil, fmt.Errorf("decode history line %d: %w", line, err)
		}

		records = append(records, record)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history file: %w", err)
	}

	return records, nil
}

// Listener returns a notifier listener that journals every fired alarm.
// Write failures are logged and do not affect delivery to other listeners.
func Listener(repo Repository, now func() time.Time) func(ctx context.Context, alarm *domain.Alarm) {
	return func(ctx context.Context, alarm *domain.Alarm) {
		record := &Record{
			FiredAt: now(),
			Alarm:   alarm,
		}

		if err := repo.Append(ctx, record); err != nil {
			logger.ErrorKV(ctx, "Failed to journal fired alarm", "alarm", alarm.Name, "error", err)
		}
	}
}

// toProto converts a record into a protobuf Struct.
func toProto(record *Record) *structpb.Struct {
	alarmFields := map[string]*structpb.Value{
		"name":          structpb.NewStringValue(record.Alarm.Name),
		"scheduledTime": structpb.NewNumberValue(domain.UnixMilli(record.Alarm.ScheduledTime)),
	}

	if record.Alarm.PeriodInMinutes != nil {
		alarmFields["periodInMinutes"] = structpb.NewNumberValue(*record.Alarm.PeriodInMinutes)
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"firedAt": structpb.NewNumberValue(domain.UnixMilli(record.FiredAt)),
			"alarm":   structpb.NewStructValue(&structpb.Struct{Fields: alarmFields}),
		},
	}
}

// fromProto converts a protobuf Struct back into a record.
func fromProto(protoRecord *structpb.Struct) (*Record, error) {
	fields := protoRecord.GetFields()

	firedAt, ok := fields["firedAt"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, fmt.Errorf("%w: firedAt", errMalformedRecord)
	}

	alarmFields := fields["alarm"].GetStructValue().GetFields()
	if alarmFields == nil {
		return nil, fmt.Errorf("%w: alarm", errMalformedRecord)
	}

	scheduledTime, ok := alarmFields["scheduledTime"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, fmt.Errorf("%w: scheduledTime", errMalformedRecord)
	}

	alarm := &domain.Alarm{
		Name:          alarmFields["name"].GetStringValue(),
		ScheduledTime: domain.FromUnixMilli(scheduledTime.NumberValue),
	}

	if period, ok := alarmFields["periodInMinutes"].GetKind().(*structpb.Value_NumberValue); ok {
		alarm.PeriodInMinutes = domain.Float(period.NumberValue)
	}

	return &Record{
		FiredAt: domain.FromUnixMilli(firedAt.NumberValue),
		Alarm:   alarm,
	}, nil
}
