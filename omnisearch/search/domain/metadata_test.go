package search

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type base struct {
	ID      uuid.UUID
	Created time.Time
}

type audited struct {
	base
	Version int
}

type location struct {
	City string
}

type tag struct {
	Label string
}

type article struct {
	audited
	Title    string
	Location location
	Tags     []string `omnisearch:"collection"`
	Labels   []tag    `omnisearch:"collection"`
	Related  []article
	Secret   string `omnisearch:"-"`
	Cached   string `db:"-"`
	Version  string
	internal int
}

func names(fields []FieldDescriptor) []string {
	result := make([]string, len(fields))
	for i, f := range fields {
		result[i] = f.Name
	}
	return result
}

func TestFieldsOf_Order(t *testing.T) {
	fields, err := NewFieldCache().FieldsOf(reflect.TypeOf(article{}))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Title", "Location", "Tags", "Labels", "Related", "Secret", "Cached", "Version", "internal",
		"ID", "Created",
	}, names(fields))
}

func TestFieldsOf_Classification(t *testing.T) {
	cache := NewFieldCache()
	lookup := func(name string) FieldDescriptor {
		f, err := cache.Lookup(reflect.TypeOf(article{}), name)
		require.NoError(t, err)
		return f
	}

	assert.True(t, lookup("Location").Embedded)
	assert.False(t, lookup("Created").Embedded, "time.Time is a value")
	assert.True(t, lookup("Tags").CollectionOfValues)
	assert.Equal(t, reflect.TypeOf(""), lookup("Tags").ElementType)
	assert.True(t, lookup("Labels").CollectionOfValues)
	assert.Equal(t, reflect.TypeOf(tag{}), lookup("Labels").ElementType)
	assert.True(t, lookup("Related").Relation)
	assert.True(t, lookup("Secret").Ignorable)
	assert.True(t, lookup("Cached").Ignorable)
	assert.False(t, lookup("internal").Exported)
	assert.Equal(t, []int{0, 0, 0}, lookup("ID").Index)
	assert.Equal(t, reflect.TypeOf(""), lookup("Version").Type, "own fields shadow promoted ones")
}

func TestLookup(t *testing.T) {
	cache := NewFieldCache()

	f, err := cache.Lookup(reflect.TypeOf(&article{}), "title")
	require.NoError(t, err)
	assert.Equal(t, "Title", f.Name)

	_, err = cache.Lookup(reflect.TypeOf(article{}), "missing")
	assert.True(t, errors.Is(err, ErrUnresolvedPath))
}

func TestFieldsOf_InvalidMetadata(t *testing.T) {
	type unknownOption struct {
		Name string `omnisearch:"fulltext"`
	}
	type collectionOfScalar struct {
		Name string `omnisearch:"collection"`
	}
	type embeddedScalar struct {
		Name string `omnisearch:"embedded"`
	}

	for _, v := range []any{unknownOption{}, collectionOfScalar{}, embeddedScalar{}, 42} {
		_, err := NewFieldCache().FieldsOf(reflect.TypeOf(v))
		assert.ErrorIs(t, err, ErrInvalidMetadata, "%T", v)
	}
}

func TestFieldsOf_SelfEmbeddingPointer(t *testing.T) {
	type node struct {
		*node
		Value string
	}
	fields, err := NewFieldCache().FieldsOf(reflect.TypeOf(node{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Value"}, names(fields))
}

func TestFieldCache_ComputesOncePerType(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	cache := &FieldCache{describe: func(t reflect.Type) ([]FieldDescriptor, error) {
		calls.Add(1)
		<-release
		return describeFields(t)
	}}

	const readers = 16
	var wg sync.WaitGroup
	results := make([][]FieldDescriptor, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fields, err := cache.FieldsOf(reflect.TypeOf(article{}))
			assert.NoError(t, err)
			results[i] = fields
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, fields := range results {
		assert.Len(t, fields, 11)
	}

	_, err := cache.FieldsOf(reflect.TypeOf(&article{}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "pointer types share the entry")
}

func TestFieldCache_FailureIsNotCached(t *testing.T) {
	var calls int
	cache := &FieldCache{describe: func(t reflect.Type) ([]FieldDescriptor, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return describeFields(t)
	}}

	_, err := cache.FieldsOf(reflect.TypeOf(location{}))
	assert.Error(t, err)

	fields, err := cache.FieldsOf(reflect.TypeOf(location{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"City"}, names(fields))
	assert.Equal(t, 2, calls)
}
