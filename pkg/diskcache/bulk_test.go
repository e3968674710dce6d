package diskcache_test

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/diskcache/pkg/diskcache"
)

// bulkEnv opts into the full million-key run. Writing that many keys into a
// fresh file in one bbolt transaction takes minutes.
const bulkEnv = "DISKCACHE_BULK"

func Test_Cache_Returns_Every_Value_When_Many_Keys_Written_In_One_Transaction(t *testing.T) {
	t.Parallel()

	checkBulk(t, 50_000)
}

func Test_Cache_Returns_Every_Value_When_Million_Keys_Written_In_One_Transaction(t *testing.T) {
	t.Parallel()

	if os.Getenv(bulkEnv) == "" {
		t.Skipf("set %s=1 to run the million-key test", bulkEnv)
	}

	if testing.Short() {
		t.Skip("skipping bulk test in short mode")
	}

	checkBulk(t, 1_000_000)
}

// checkBulk writes key-1..key-n with value-1..value-n in one transaction and
// reads every key back in its own read transaction.
func checkBulk(t *testing.T, n int) {
	t.Helper()

	c := openCache(t, diskcache.Options{})

	err := c.Update(func(tx *diskcache.Tx) error {
		for i := 1; i <= n; i++ {
			s := strconv.Itoa(i)

			err := c.SetTx(tx, "key-"+s, "value-"+s, diskcache.Overwrite)
			if err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err)

	count, err := c.Len()
	require.NoError(t, err)
	require.Equal(t, n, count)

	for i := 1; i <= n; i++ {
		s := strconv.Itoa(i)

		got, found, err := c.Get("key-" + s)
		if err != nil || !found || got != "value-"+s {
			t.Fatalf("Get(key-%s) = (%q, %v, %v), want (%q, true, nil)", s, got, found, err, "value-"+s)
		}
	}

	for _, missing := range []string{"key-0", "key-" + strconv.Itoa(n+1)} {
		_, found, err := c.Get(missing)
		require.NoError(t, err)
		require.False(t, found, missing)
	}
}
