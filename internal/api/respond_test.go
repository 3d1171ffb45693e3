package api

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/whpcodes/promo-directory/internal/storage"
)

func TestStorageErrorStatusCodes(t *testing.T) {
	s := &Server{Log: zerolog.Nop()}

	cases := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, 404},
		{storage.ErrAlreadyPromoted, 409},
		{storage.ErrDuplicate, 409},
		{storage.ErrCommentsDisabled, 400},
		{storage.ErrCommentEmpty, 400},
		{storage.ErrCommentTooLong, 400},
		{storage.ErrInvalidVote, 400},
		{errors.New("connection reset"), 500},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		s.storageError(rec, tc.err)
		assert.Equal(t, tc.want, rec.Code, "error %v", tc.err)
	}
}
