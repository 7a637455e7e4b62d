package redisstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MrEthical07/authcore/identity"
	"github.com/MrEthical07/authcore/store"
	"github.com/redis/go-redis/v9"
)

const (
	challengeRecordVersion2 = 2
	// DefaultChallengePrefix namespaces challenge keys.
	DefaultChallengePrefix = "two_fa_code"
)

// challengeRecord carries no expiry of its own; the key TTL set on Issue is
// the only lifetime of an attempt.
type challengeRecord struct {
	Digest [sha256.Size]byte
	Email  string
}

// ChallengeStore keeps pending attempts under "<prefix>:<attempt id>".
type ChallengeStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewChallengeStore returns a store using prefix (DefaultChallengePrefix when
// empty) and ttl (store.ChallengeTTL when zero).
func NewChallengeStore(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *ChallengeStore {
	if prefix == "" {
		prefix = DefaultChallengePrefix
	}
	if ttl <= 0 {
		ttl = store.ChallengeTTL
	}
	return &ChallengeStore{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *ChallengeStore) key(id identity.AttemptID) string {
	return s.prefix + ":" + id.String()
}

// Issue writes the attempt if no entry exists for id.
func (s *ChallengeStore) Issue(ctx context.Context, email identity.Email, id identity.AttemptID, code identity.Code) error {
	encoded, err := encodeChallenge(&challengeRecord{
		Digest: store.CodeDigest(code),
		Email:  email.String(),
	})
	if err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, s.key(id), encoded, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

// Confirm checks code against the pending attempt without consuming it.
func (s *ChallengeStore) Confirm(ctx context.Context, id identity.AttemptID, code identity.Code) (identity.Email, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return identity.Email{}, store.ErrNotFound
		}
		return identity.Email{}, fmt.Errorf("%w: %v", store.ErrBackend, err)
	}

	record, err := decodeChallenge(data)
	if err != nil {
		return identity.Email{}, fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	digest := store.CodeDigest(code)
	if subtle.ConstantTimeCompare(digest[:], record.Digest[:]) != 1 {
		return identity.Email{}, store.ErrInvalidCode
	}

	email, err := identity.ParseEmail(record.Email)
	if err != nil {
		return identity.Email{}, fmt.Errorf("%w: stored identity invalid", store.ErrBackend)
	}
	return email, nil
}

// Discard deletes the attempt and reports whether a key was removed.
func (s *ChallengeStore) Discard(ctx context.Context, id identity.AttemptID) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrBackend, err)
	}
	return n > 0, nil
}

func encodeChallenge(record *challengeRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion2)
	buf.Write(record.Digest[:])

	if len(record.Email) > 65535 {
		return nil, errors.New("challenge identity length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Email))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Email)

	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (*challengeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersion2 {
		return nil, errors.New("invalid challenge record version")
	}

	record := &challengeRecord{}
	if _, err := io.ReadFull(reader, record.Digest[:]); err != nil {
		return nil, err
	}

	var emailLen uint16
	if err := binary.Read(reader, binary.BigEndian, &emailLen); err != nil {
		return nil, err
	}
	email := make([]byte, emailLen)
	if _, err := io.ReadFull(reader, email); err != nil {
		return nil, err
	}
	record.Email = string(email)

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in challenge record")
	}
	return record, nil
}
