package diskcache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Lease_Fails_With_ErrBufferBusy_When_Slot_Already_Leased(t *testing.T) {
	t.Parallel()

	p := NewBufferPool(16, 32)

	err := p.WithKey(func(outer *Buffer) error {
		copy(outer.Free(), "abc")
		outer.Advance(3)

		innerErr := p.WithKey(func(*Buffer) error {
			t.Fatal("inner lease must not run")

			return nil
		})
		require.ErrorIs(t, innerErr, ErrBufferBusy)
		require.ErrorContains(t, innerErr, "key buffer")

		// The outer lease is untouched by the failed attempt.
		require.Equal(t, Leased, p.State(SlotKey))
		require.Equal(t, 3, outer.Position())

		outer.Flip()
		require.Equal(t, "abc", outer.String())

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, Free, p.State(SlotKey))
}

func Test_Lease_Does_Not_Block_Other_Slots_When_One_Is_Leased(t *testing.T) {
	t.Parallel()

	p := NewBufferPool(16, 32)

	err := p.WithKey(func(*Buffer) error {
		return p.WithValue(func(*Buffer) error {
			return p.WithChars(func(*Buffer) error {
				return p.WithEncoder(func(*Encoder) error {
					return p.WithDecoder(func(*Decoder) error {
						for _, s := range []Slot{SlotKey, SlotValue, SlotChars, SlotEncoder, SlotDecoder} {
							require.Equal(t, Leased, p.State(s), s.String())
						}

						return nil
					})
				})
			})
		})
	})
	require.NoError(t, err)

	for _, s := range []Slot{SlotKey, SlotValue, SlotChars, SlotEncoder, SlotDecoder} {
		require.Equal(t, Free, p.State(s), s.String())
	}
}

func Test_Lease_Releases_Slot_When_Callback_Fails_Or_Panics(t *testing.T) {
	t.Parallel()

	p := NewBufferPool(16, 32)
	boom := errors.New("boom")

	err := p.WithValue(func(*Buffer) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, Free, p.State(SlotValue))

	require.Panics(t, func() {
		_ = p.WithEncoder(func(*Encoder) error { panic("boom") })
	})
	require.Equal(t, Free, p.State(SlotEncoder))

	// Leasable again after both failures.
	require.NoError(t, p.WithValue(func(*Buffer) error { return nil }))
	require.NoError(t, p.WithEncoder(func(*Encoder) error { return nil }))
}

func Test_Lease_Clears_Buffer_When_Leased_Again(t *testing.T) {
	t.Parallel()

	p := NewBufferPool(8, 8)

	require.NoError(t, p.WithChars(func(b *Buffer) error {
		copy(b.Free(), "dirty")
		b.Advance(5)
		b.Flip()

		return nil
	}))

	require.NoError(t, p.WithChars(func(b *Buffer) error {
		require.Equal(t, 0, b.Position())
		require.Len(t, b.Free(), 8)

		return nil
	}))
}

func Test_EncodeKey_Reports_Busy_Encoder_When_Encoder_Leased(t *testing.T) {
	t.Parallel()

	p := NewBufferPool(16, 32)

	err := p.WithEncoder(func(*Encoder) error {
		return p.encodeKey("k", func([]byte) error {
			t.Fatal("callback must not run")

			return nil
		})
	})
	require.ErrorIs(t, err, ErrBufferBusy)
	require.ErrorContains(t, err, "encoder")
	require.Equal(t, Free, p.State(SlotKey))
}

func Test_Slot_And_State_String_When_Formatted(t *testing.T) {
	t.Parallel()

	require.Equal(t, "free", Free.String())
	require.Equal(t, "leased", Leased.String())
	require.Equal(t, "LeaseState(7)", LeaseState(7).String())
	require.Equal(t, "value buffer", SlotValue.String())
	require.Equal(t, "Slot(9)", Slot(9).String())
}
