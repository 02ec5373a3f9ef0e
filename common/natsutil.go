package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	version2 "github.com/hashicorp/go-version"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"gitlab.com/mta-deploy/deployctl/common/logx"
	version3 "gitlab.com/mta-deploy/deployctl/common/version"
)

// CheckVersion checks the NATS server version against a minimum supported version
func CheckVersion(_ context.Context, nc *nats.Conn) error {
	nvStr := nc.ConnectedServerVersion()
	nv, err := version2.NewVersion(nvStr)
	if err != nil {
		return fmt.Errorf("parse nats version: %w", err)
	}
	if nv.LessThan(version3.NatsVersion) {
		return fmt.Errorf("nats version %s not supported.  The minimum supported version is %s", nvStr, version3.NatsVersion)
	}
	return nil
}

// Save saves a value to a key value store
func Save(ctx context.Context, kv jetstream.KeyValue, k string, v []byte) error {
	log := logx.FromContext(ctx)
	if log.Enabled(ctx, slog.LevelDebug) {
		log.Log(ctx, slog.LevelDebug, "Set KV", slog.String("bucket", kv.Bucket()), slog.String("key", k))
	}
	if _, err := kv.Put(ctx, k, v); err != nil {
		return fmt.Errorf("save kv: %w", err)
	}
	return nil
}

// Load loads a value from a key value store
func Load(ctx context.Context, kv jetstream.KeyValue, k string) ([]byte, error) {
	b, err := kv.Get(ctx, k)
	if err == nil {
		return b.Value(), nil
	}
	return nil, fmt.Errorf("load value from KV: %w", err)
}

// SaveObj saves a JSON document to a key value store
func SaveObj(ctx context.Context, kv jetstream.KeyValue, k string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("save object into KV: %w", err)
	}
	return Save(ctx, kv, k, b)
}

// LoadObj loads a JSON document from a key value store
func LoadObj(ctx context.Context, kv jetstream.KeyValue, k string, v any) error {
	b, err := Load(ctx, kv, k)
	if err != nil {
		return fmt.Errorf("load object from KV %s(%s): %w", kv.Bucket(), k, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal in LoadObj: %w", err)
	}
	return nil
}

// Delete deletes an item from a key value store
func Delete(ctx context.Context, kv jetstream.KeyValue, key string) error {
	if err := kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}

// EnsureBuckets ensures that a list of key value stores exist
func EnsureBuckets(ctx context.Context, js jetstream.JetStream, storageType jetstream.StorageType, names []string) error {
	for _, i := range names {
		if err := EnsureBucket(ctx, js, storageType, i, 0); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
	}
	return nil
}

// EnsureBucket creates a bucket if it does not exist
func EnsureBucket(ctx context.Context, js jetstream.JetStream, storageType jetstream.StorageType, name string, ttl time.Duration) error {
	if _, err := js.KeyValue(ctx, name); errors.Is(err, jetstream.ErrBucketNotFound) {
		if _, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  name,
			Storage: storageType,
			TTL:     ttl,
		}); err != nil {
			return fmt.Errorf("ensure buckets: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("obtain bucket: %w", err)
	}
	return nil
}

// KeyPrefixResultOpts sets the options for a key prefix search
type KeyPrefixResultOpts struct {
	Sort           bool // Sort the results
	ExcludeDeleted bool // Exclude deleted keys, The default is to include deleted keys as this means no extra lookup
}

// KeyPrefixSearch searches for keys in a key value store that match a prefix
func KeyPrefixSearch(ctx context.Context, js jetstream.JetStream, kv jetstream.KeyValue, prefix string, opts KeyPrefixResultOpts) ([]string, error) {
	kvName := kv.Bucket()
	streamName := "KV_" + kvName
	subjectTrim := fmt.Sprintf("$KV.%s.", kvName)
	subjectPrefix := fmt.Sprintf("%s%s.", subjectTrim, prefix)
	kvs, err := js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}
	nfo, err := kvs.Info(ctx, jetstream.WithSubjectFilter(subjectPrefix+">"))
	if err != nil {
		return nil, fmt.Errorf("get stream info: %w", err)
	}
	ret := make([]string, 0, len(nfo.State.Subjects))
	kvNameSubjectPrefixLength := len(subjectTrim)
	for s := range nfo.State.Subjects {
		if len(s) >= kvNameSubjectPrefixLength {
			ret = append(ret, s[kvNameSubjectPrefixLength:])
		}
	}

	if opts.Sort {
		slices.Sort(ret)
	}
	if opts.ExcludeDeleted {
		var fnErr error
		ret = slices.DeleteFunc(ret, func(k string) bool {
			_, err := kv.Get(ctx, k)
			if err != nil {
				if errors.Is(err, jetstream.ErrKeyNotFound) {
					return true
				}
				fnErr = err
				return true
			}
			return false
		})
		if fnErr != nil {
			return nil, fmt.Errorf("get key value: %w", fnErr)
		}
	}
	return ret, nil
}

// IsJetStreamNotFound returns true if the error is a jetstream key or bucket not found error
func IsJetStreamNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrBucketNotFound)
}
