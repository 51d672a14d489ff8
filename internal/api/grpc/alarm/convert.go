package alarm

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// Field names shared by requests and responses.
const (
	fieldName            = "name"
	fieldWhen            = "when"
	fieldDelayInMinutes  = "delayInMinutes"
	fieldPeriodInMinutes = "periodInMinutes"
	fieldScheduledTime   = "scheduledTime"
	fieldAlarm           = "alarm"
)

// errInvalidField is returned when a message field has the wrong kind.
var errInvalidField = errors.New("invalid field")

// ToProtoAlarm converts a domain alarm to its wire form:
// {name, scheduledTime (ms since epoch), periodInMinutes?}.
func ToProtoAlarm(alarm *domain.Alarm) *structpb.Struct {
	if alarm == nil {
		return &structpb.Struct{}
	}

	fields := map[string]*structpb.Value{
		fieldName:          structpb.NewStringValue(alarm.Name),
		fieldScheduledTime: structpb.NewNumberValue(domain.UnixMilli(alarm.ScheduledTime)),
	}

	if alarm.PeriodInMinutes != nil {
		fields[fieldPeriodInMinutes] = structpb.NewNumberValue(*alarm.PeriodInMinutes)
	}

	return &structpb.Struct{Fields: fields}
}

// FromProtoAlarm converts the wire form back into a domain alarm.
func FromProtoAlarm(protoAlarm *structpb.Struct) (*domain.Alarm, error) {
	fields := protoAlarm.GetFields()

	name, err := stringField(fields, fieldName)
	if err != nil {
		return nil, err
	}

	scheduledTime, err := numberField(fields, fieldScheduledTime)
	if err != nil {
		return nil, err
	}

	if scheduledTime == nil {
		return nil, fmt.Errorf("%w: %s is required", errInvalidField, fieldScheduledTime)
	}

	period, err := numberField(fields, fieldPeriodInMinutes)
	if err != nil {
		return nil, err
	}

	return &domain.Alarm{
		Name:            name,
		ScheduledTime:   domain.FromUnixMilli(*scheduledTime),
		PeriodInMinutes: period,
	}, nil
}

// ToProtoCreateRequest builds a CreateAlarm request. Unset info fields are omitted.
func ToProtoCreateRequest(name string, info *domain.Info) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldName: structpb.NewStringValue(name),
	}

	if info == nil {
		return &structpb.Struct{Fields: fields}
	}

	if info.When != nil {
		fields[fieldWhen] = structpb.NewNumberValue(domain.UnixMilli(*info.When))
	}

	if info.DelayInMinutes != nil {
		fields[fieldDelayInMinutes] = structpb.NewNumberValue(*info.DelayInMinutes)
	}

	if info.PeriodInMinutes != nil {
		fields[fieldPeriodInMinutes] = structpb.NewNumberValue(*info.PeriodInMinutes)
	}

	return &structpb.Struct{Fields: fields}
}

// FromProtoCreateRequest extracts the alarm name and create options.
// Absent and null fields both mean "not set". Errors wrap domain.ErrInvalidArgument.
func FromProtoCreateRequest(req *structpb.Struct) (string, *domain.Info, error) {
	fields := req.GetFields()

	name, err := stringField(fields, fieldName)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	when, err := numberField(fields, fieldWhen)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	delay, err := numberField(fields, fieldDelayInMinutes)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	period, err := numberField(fields, fieldPeriodInMinutes)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	if when != nil && !isUnixMilli(*when) {
		return "", nil, fmt.Errorf("%w: %w: %s must be a finite number of milliseconds since the epoch",
			domain.ErrInvalidArgument, errInvalidField, fieldWhen)
	}

	info := &domain.Info{
		DelayInMinutes:  delay,
		PeriodInMinutes: period,
	}

	if when != nil {
		at := domain.FromUnixMilli(*when)
		info.When = &at
	}

	return name, info, nil
}

// ToProtoAlarmList converts alarms to a ListValue of alarm structs.
func ToProtoAlarmList(alarms []*domain.Alarm) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(alarms))
	for _, alarm := range alarms {
		values = append(values, structpb.NewStructValue(ToProtoAlarm(alarm)))
	}

	return &structpb.ListValue{Values: values}
}

// FromProtoAlarmList converts a ListValue of alarm structs to domain alarms.
func FromProtoAlarmList(list *structpb.ListValue) ([]*domain.Alarm, error) {
	alarms := make([]*domain.Alarm, 0, len(list.GetValues()))

	for i, value := range list.GetValues() {
		protoAlarm := value.GetStructValue()
		if protoAlarm == nil {
			return nil, fmt.Errorf("%w: list item %d is not a struct", errInvalidField, i)
		}

		alarm, err := FromProtoAlarm(protoAlarm)
		if err != nil {
			return nil, fmt.Errorf("list item %d: %w", i, err)
		}

		alarms = append(alarms, alarm)
	}

	return alarms, nil
}

// ToProtoGetResponse wraps an optional alarm as {alarm: struct | null}.
func ToProtoGetResponse(alarm *domain.Alarm) *structpb.Struct {
	value := structpb.NewNullValue()
	if alarm != nil {
		value = structpb.NewStructValue(ToProtoAlarm(alarm))
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldAlarm: value,
		},
	}
}

// FromProtoGetResponse unwraps a GetAlarm response. It returns nil for an absent alarm.
func FromProtoGetResponse(resp *structpb.Struct) (*domain.Alarm, error) {
	protoAlarm := resp.GetFields()[fieldAlarm].GetStructValue()
	if protoAlarm == nil {
		return nil, nil //nolint:nilnil // An absent alarm is not an error.
	}

	return FromProtoAlarm(protoAlarm)
}

// stringField reads an optional string field. Missing and null yield "".
func stringField(fields map[string]*structpb.Value, key string) (string, error) {
	value, ok := fields[key]
	if !ok || isNull(value) {
		return "", nil
	}

	kind, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", errInvalidField, key)
	}

	return kind.StringValue, nil
}

// numberField reads an optional number field. Missing and null yield nil.
func numberField(fields map[string]*structpb.Value, key string) (*float64, error) {
	value, ok := fields[key]
	if !ok || isNull(value) {
		return nil, nil //nolint:nilnil // Absence is encoded as nil.
	}

	kind, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a number", errInvalidField, key)
	}

	return domain.Float(kind.NumberValue), nil
}

// isUnixMilli reports whether ms is finite and fits an int64 millisecond count.
func isUnixMilli(ms float64) bool {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return false
	}

	return ms > math.MinInt64 && ms < math.MaxInt64
}

// isNull reports whether value is explicitly null.
func isNull(value *structpb.Value) bool {
	if value == nil {
		return true
	}

	_, ok := value.GetKind().(*structpb.Value_NullValue)

	return ok
}

