package query

import (
	"context"
	"time"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/transform"
)

// StoreBridge is the read surface the store-backed builtins (query_bucket,
// query_bucket_names, find_bucket) need. worker.Worker satisfies it
// directly; tests can stub it without pulling in the whole worker.
type StoreBridge interface {
	GetEvents(ctx context.Context, bucketID string, start, end *time.Time, limit int) ([]models.Event, error)
	GetBuckets(ctx context.Context) map[string]models.Bucket
}

// Register binds every builtin query function into env as a static
// (never-consumed) Function value, the equivalent of fill_env. The store
// bridge each builtin needs is supplied later, at call time, by the
// interpreter rather than captured here.
func Register(env *Environment) {
	for name, fn := range builtins {
		env.DeclareStatic(name, FunctionValue(name, fn))
	}
}

var builtins = map[string]BuiltinFunc{
	"print":                    fnPrint,
	"query_bucket":             fnQueryBucket,
	"query_bucket_names":       fnQueryBucketNames,
	"sort_by_duration":         fnSortByDuration,
	"sort_by_timestamp":        fnSortByTimestamp,
	"sum_durations":            fnSumDurations,
	"limit_events":             fnLimitEvents,
	"contains":                 fnContains,
	"flood":                    fnFlood,
	"find_bucket":              fnFindBucket,
	"merge_events_by_keys":     fnMergeEventsByKeys,
	"chunk_events_by_key":      fnChunkEventsByKey,
	"exclude_keyvals":          fnExcludeKeyvals,
	"filter_keyvals":           fnFilterKeyvals,
	"filter_keyvals_regex":     fnFilterKeyvalsRegex,
	"filter_period_intersect":  fnFilterPeriodIntersect,
	"split_url_events":         fnSplitURLEvents,
	"concat":                   fnConcat,
	"categorize":               fnCategorize,
	"tag":                      fnTag,
	"period_union":             fnPeriodUnion,
	"union_no_overlap":         fnUnionNoOverlap,
}

func argsLength(args []Value, n int) *Error {
	if len(args) != n {
		return newErr(ErrInvalidFunctionParameters, "expected %d parameters in function, got %d", n, len(args))
	}
	return nil
}

func getTimeInterval(env *Environment) (models.TimeInterval, *Error) {
	v, ok := env.Peek("TIMEINTERVAL")
	if !ok {
		return models.TimeInterval{}, newErr(ErrTimeInterval, "TIMEINTERVAL not defined!")
	}
	if v.Kind != KindString {
		return models.TimeInterval{}, newErr(ErrTimeInterval, "TIMEINTERVAL is not of type string!")
	}
	ti, err := models.ParseTimeInterval(v.Str)
	if err != nil {
		return models.TimeInterval{}, newErr(ErrTimeInterval, "failed to parse TIMEINTERVAL: %s", v.Str)
	}
	return ti, nil
}

func fnPrint(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	// No structured logger call here deliberately: query scripts are
	// user-supplied and print is a debugging aid, not production
	// telemetry, so it's a no-op beyond evaluating its arguments.
	return None(), nil
}

func fnQueryBucket(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 1); err != nil {
		return Value{}, err
	}
	bucketID, err := asString(args[0])
	if err != nil {
		return Value{}, err
	}
	ti, err := getTimeInterval(env)
	if err != nil {
		return Value{}, err
	}
	start, end := ti.Start(), ti.End()
	events, gerr := bridge.GetEvents(ctx, bucketID, &start, &end, 0)
	if gerr != nil {
		return Value{}, newErr(ErrBucketQuery, "failed to query bucket: %v", gerr)
	}
	return EventsValue(events), nil
}

func fnQueryBucketNames(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 0); err != nil {
		return Value{}, err
	}
	buckets := bridge.GetBuckets(ctx)
	names := make([]Value, 0, len(buckets))
	for name := range buckets {
		names = append(names, StringValue(name))
	}
	return ListValue(names), nil
}

func fnFindBucket(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if len(args) != 1 && len(args) != 2 {
		return Value{}, newErr(ErrInvalidFunctionParameters, "expected 1 or 2 parameters in function, got %d", len(args))
	}
	prefix, err := asString(args[0])
	if err != nil {
		return Value{}, err
	}
	var hostname *string
	if len(args) == 2 {
		h, err := asString(args[1])
		if err != nil {
			return Value{}, err
		}
		hostname = &h
	}

	bucketMap := bridge.GetBuckets(ctx)
	buckets := make([]models.Bucket, 0, len(bucketMap))
	for _, b := range bucketMap {
		buckets = append(buckets, b)
	}
	name, ok := transform.FindBucket(prefix, hostname, buckets)
	if !ok {
		if hostname == nil {
			return Value{}, newErr(ErrBucketQuery, "failed to find bucket matching filter '%s'", prefix)
		}
		return Value{}, newErr(ErrBucketQuery, "failed to find bucket matching filter '%s' and hostname '%s'", prefix, *hostname)
	}
	return StringValue(name), nil
}

func fnContains(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 2); err != nil {
		return Value{}, err
	}
	switch args[0].Kind {
	case KindList:
		return BoolValue(listContains(args[0].List, args[1])), nil
	case KindDict:
		key, err := asString(args[1])
		if err != nil {
			return Value{}, newErr(ErrInvalidFunctionParameters, "function contains got second argument of kind %s, expected type String", args[1].Kind)
		}
		_, ok := args[0].Dict[key]
		return BoolValue(ok), nil
	default:
		return Value{}, newErr(ErrInvalidFunctionParameters, "function contains got first argument of kind %s, expected type List or Dict", args[0].Kind)
	}
}

func fnFlood(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 1); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.Flood(events, 5*time.Second)), nil
}

func fnCategorize(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 2); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	rules, err := asCategoryRules(args[1])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.Categorize(events, rules)), nil
}

func fnTag(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 2); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	rules, err := asTagRules(args[1])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.Tag(events, rules)), nil
}

func fnSortByDuration(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 1); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.SortByDuration(events)), nil
}

func fnSortByTimestamp(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 1); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.SortByTimestamp(events)), nil
}

func fnSumDurations(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 1); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	var sum time.Duration
	for _, e := range events {
		sum += e.Duration
	}
	return NumberValue(float64(sum.Milliseconds()) / 1000.0), nil
}

func fnLimitEvents(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 2); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	limit, err := asCount(args[1])
	if err != nil {
		return Value{}, err
	}
	if limit < 0 {
		limit = 0
	}
	if limit > len(events) {
		limit = len(events)
	}
	return EventsValue(events[:limit]), nil
}

func fnMergeEventsByKeys(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 2); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	keys, err := asStringList(args[1])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.MergeEventsByKeys(events, keys)), nil
}

func fnChunkEventsByKey(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 2); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	key, err := asString(args[1])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.ChunkEventsByKey(events, key)), nil
}

func fnFilterKeyvals(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 3); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	key, err := asString(args[1])
	if err != nil {
		return Value{}, err
	}
	vals, err := asAnyList(args[2])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.FilterKeyvals(events, key, vals)), nil
}

func fnExcludeKeyvals(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 3); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	key, err := asString(args[1])
	if err != nil {
		return Value{}, err
	}
	vals, err := asAnyList(args[2])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.ExcludeKeyvals(events, key, vals)), nil
}

func fnFilterKeyvalsRegex(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 3); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	key, err := asString(args[1])
	if err != nil {
		return Value{}, err
	}
	pattern, err := asString(args[2])
	if err != nil {
		return Value{}, err
	}
	filtered, rerr := transform.FilterKeyvalsRegex(events, key, pattern)
	if rerr != nil {
		return Value{}, newErr(ErrRegexCompile, "failed to compile regex string '%s': %v", pattern, rerr)
	}
	return EventsValue(filtered), nil
}

func fnFilterPeriodIntersect(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 2); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	mask, err := asEventList(args[1])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.FilterPeriodIntersect(events, mask)), nil
}

func fnSplitURLEvents(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 1); err != nil {
		return Value{}, err
	}
	events, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	out := make([]models.Event, len(events))
	for i, e := range events {
		out[i] = transform.SplitURLEvent(e)
	}
	return EventsValue(out), nil
}

func fnConcat(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	var all []models.Event
	for _, arg := range args {
		events, err := asEventList(arg)
		if err != nil {
			return Value{}, err
		}
		all = append(all, events...)
	}
	return EventsValue(all), nil
}

func fnPeriodUnion(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 2); err != nil {
		return Value{}, err
	}
	a, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	b, err := asEventList(args[1])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.PeriodUnion(a, b)), nil
}

func fnUnionNoOverlap(ctx context.Context, args []Value, env *Environment, bridge StoreBridge) (Value, *Error) {
	if err := argsLength(args, 2); err != nil {
		return Value{}, err
	}
	primary, err := asEventList(args[0])
	if err != nil {
		return Value{}, err
	}
	secondary, err := asEventList(args[1])
	if err != nil {
		return Value{}, err
	}
	return EventsValue(transform.UnionNoOverlap(primary, secondary)), nil
}
