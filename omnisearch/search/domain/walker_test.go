package search

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

// fakeFrom resolves every exported field and joins every collection, except the
// names listed in missing. Fields it resolves are plain paths.
type fakeFrom struct {
	fakePath
	missing map[string]bool
}

func rootOf(v any, missing ...string) fakeFrom {
	m := make(map[string]bool)
	for _, name := range missing {
		m[name] = true
	}
	return fakeFrom{fakePath: pathOf("t", v), missing: m}
}

func (f fakeFrom) Get(name string) (Path, error) {
	d, err := LookupField(f.typ, name)
	if err != nil {
		return nil, err
	}
	if f.missing[d.Name] || !d.Exported {
		return nil, errors.Wrap(ErrUnresolvedPath, d.Name)
	}
	return fakePath{name: f.name + "_" + strings.ToLower(d.Name), typ: d.Type}, nil
}

func (f fakeFrom) Join(name string) (From, error) {
	d, err := LookupField(f.typ, name)
	if err != nil {
		return nil, err
	}
	if f.missing[d.Name] {
		return nil, errors.Wrap(ErrUnresolvedPath, d.Name)
	}
	return fakeFrom{fakePath: fakePath{name: "join_" + strings.ToLower(d.Name), typ: d.ElementType}, missing: f.missing}, nil
}

type profile struct {
	Nickname string
	Tags     []string `omnisearch:"collection"`
}

type member struct {
	Name     string
	Age      int
	Active   bool
	Profile  profile
	Aliases  []string `omnisearch:"collection"`
	Friends  []member
	Password string `omnisearch:"-"`
	Missing  string
	hidden   string
}

type tree struct {
	Label string
	Child *tree `omnisearch:"embedded"`
}

func newWalker(log logrus.FieldLogger) *walker {
	return &walker{fields: NewFieldCache(), rules: DefaultRules(), log: log}
}

func TestWalker_Collect(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	predicates, err := newWalker(log).collect("ann", rootOf(member{}, "Missing"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"LOWER(t.t_name) LIKE $1",
		"LOWER(t.t_profile_nickname) LIKE $1",
		"LOWER(t.join_aliases) LIKE $1",
	}, compile(t, predicates))

	var skipped []string
	for _, entry := range hook.AllEntries() {
		skipped = append(skipped, entry.Data["field"].(string))
	}
	assert.ElementsMatch(t, []string{"Tags", "Missing", "hidden"}, skipped)
}

func TestWalker_NumericAndBoolean(t *testing.T) {
	log, _ := test.NewNullLogger()

	predicates, err := newWalker(log).collect("true", rootOf(member{}))
	require.NoError(t, err)
	assert.Contains(t, compile(t, predicates), "t.t_active = $1")

	predicates, err = newWalker(log).collect("42", rootOf(member{}))
	require.NoError(t, err)
	assert.Contains(t, compile(t, predicates), "t.t_age = $1")
}

func TestWalker_RecursiveEmbedding(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	predicates, err := newWalker(log).collect("x", rootOf(tree{}))
	require.NoError(t, err)

	assert.Equal(t, []string{"LOWER(t.t_label) LIKE $1"}, compile(t, predicates))
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, reflect.TypeOf(tree{}).String(), hook.LastEntry().Data["type"])
}

func TestSearchPredicate(t *testing.T) {
	log, _ := test.NewNullLogger()
	o := New(nil, WithLogger(log))

	t.Run("blank token is absent", func(t *testing.T) {
		for _, token := range []string{"", "   ", "\t"} {
			predicate, err := o.SearchPredicate(rootOf(member{}), token, nil)
			require.NoError(t, err)
			assert.Nil(t, predicate)
		}
	})

	t.Run("no qualifying field is false", func(t *testing.T) {
		type numbers struct {
			A int
			B bool
		}
		predicate, err := o.SearchPredicate(rootOf(numbers{}), "abc", nil)
		require.NoError(t, err)
		assert.Equal(t, specification.False(), predicate)
	})

	t.Run("joins are searched once each", func(t *testing.T) {
		predicate, err := o.SearchPredicate(rootOf(member{}), "ann", []string{"Friends", "Friends", ""})
		require.NoError(t, err)
		text := compile(t, []specification.Visitable{predicate})[0]
		assert.Equal(t, 1, strings.Count(text, "t.join_friends_name"))
	})

	t.Run("unknown join fails", func(t *testing.T) {
		_, err := o.SearchPredicate(rootOf(member{}), "ann", []string{"Enemies"})
		assert.ErrorIs(t, err, ErrUnresolvedPath)
	})
}
