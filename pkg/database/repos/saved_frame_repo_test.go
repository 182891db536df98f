package repos_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matryer/is"
	"github.com/tauraamui/framerelay/pkg/database/models"
	"github.com/tauraamui/framerelay/pkg/database/repos"
)

type mockGormWrapper struct {
	error   error
	created []interface{}
	chain   *queryChain
	result  interface{}
}

type queryChain struct {
	where whereQuery
	order interface{}
	limit int
	first firstSelect
}

type whereQuery struct {
	query interface{}
	args  []interface{}
}

type firstSelect struct {
	conds []interface{}
}

func (w *mockGormWrapper) Error() error {
	return w.error
}

func (w *mockGormWrapper) Create(value interface{}) repos.GormWrapper {
	if w.error == nil {
		w.created = append(w.created, value)
	}
	return w
}

func (w *mockGormWrapper) query() *queryChain {
	if w.chain == nil {
		w.chain = &queryChain{}
	}
	return w.chain
}

func (w *mockGormWrapper) Where(query interface{}, args ...interface{}) repos.GormWrapper {
	w.query().where = whereQuery{query: query, args: args}
	return w
}

func (w *mockGormWrapper) Order(value interface{}) repos.GormWrapper {
	w.query().order = value
	return w
}

func (w *mockGormWrapper) Limit(limit int) repos.GormWrapper {
	w.query().limit = limit
	return w
}

func (w *mockGormWrapper) First(dest interface{}, conds ...interface{}) repos.GormWrapper {
	if w.chain == nil {
		w.error = errors.New("need to call query first")
		return w
	}

	w.chain.first = firstSelect{conds}
	return w.fill(dest)
}

func (w *mockGormWrapper) Find(dest interface{}, conds ...interface{}) repos.GormWrapper {
	return w.fill(dest)
}

func (w *mockGormWrapper) fill(dest interface{}) repos.GormWrapper {
	if w.error != nil || w.result == nil {
		return w
	}
	w.error = replace(dest, w.result)
	return w
}

func replace(i, v interface{}) error {
	val := reflect.ValueOf(i)
	if val.Kind() != reflect.Ptr {
		return errors.New("not a pointer")
	}

	val = val.Elem()

	newVal := reflect.Indirect(reflect.ValueOf(v))

	if !val.Type().AssignableTo(newVal.Type()) {
		return errors.New("mismatched types")
	}

	val.Set(newVal)
	return nil
}

func TestSavedFrameRepoCreateNoErr(t *testing.T) {
	is := is.New(t)

	gorm := mockGormWrapper{}
	repo := repos.SavedFrameRepository{DB: &gorm}

	frame := models.SavedFrame{Sequence: 0, FileName: "frame_0.png"}
	is.NoErr(repo.Create(&frame))
	is.Equal(len(gorm.created), 1)
	is.Equal(gorm.created[0], &frame)
}

func TestSavedFrameRepoCreateWithErr(t *testing.T) {
	is := is.New(t)

	err := errors.New("unable to create data")
	gorm := mockGormWrapper{error: err}
	repo := repos.SavedFrameRepository{DB: &gorm}

	frame := models.SavedFrame{Sequence: 0}
	is.Equal(repo.Create(&frame).Error(), err.Error())
	is.Equal(len(gorm.created), 0)
}

func TestSavedFrameRepoListAppliesOrderAndLimit(t *testing.T) {
	is := is.New(t)

	existing := []models.SavedFrame{{Sequence: 0}, {Sequence: 1}}
	gorm := mockGormWrapper{result: existing}
	repo := repos.SavedFrameRepository{DB: &gorm}

	frames, err := repo.List(2)
	is.NoErr(err)
	is.Equal(frames, existing)
	is.Equal(gorm.chain.order, "sequence asc")
	is.Equal(gorm.chain.limit, 2)
}

func TestSavedFrameRepoListWithoutLimit(t *testing.T) {
	is := is.New(t)

	gorm := mockGormWrapper{}
	repo := repos.SavedFrameRepository{DB: &gorm}

	frames, err := repo.List(0)
	is.NoErr(err)
	is.Equal(len(frames), 0)
	is.Equal(gorm.chain.limit, 0)
}

func TestSavedFrameRepoListWithErr(t *testing.T) {
	is := is.New(t)

	gorm := mockGormWrapper{error: errors.New("no such table: saved_frames")}
	repo := repos.SavedFrameRepository{DB: &gorm}

	_, err := repo.List(10)
	is.Equal(err.Error(), "unable to list saved frames: no such table: saved_frames")
}

func TestSavedFrameRepoFindBySequence(t *testing.T) {
	tests := []struct {
		title    string
		existing models.SavedFrame
		error    error
		expected string
	}{
		{
			title:    "find frame by sequence",
			existing: models.SavedFrame{Sequence: 4, FileName: "frame_4.png"},
			expected: "frame_4.png",
		},
		{
			title: "find frame by sequence returns error",
			error: errors.New("record not found"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			is := is.New(t)

			gorm := mockGormWrapper{result: tt.existing, error: tt.error}
			repo := repos.SavedFrameRepository{DB: &gorm}

			frame, err := repo.FindBySequence(4)
			if tt.error != nil {
				is.Equal(err.Error(), "saved frame of sequence 4 not found")
				return
			}

			is.NoErr(err)
			is.Equal(frame.FileName, tt.expected)
			is.Equal(gorm.chain.where.query, "sequence = ?")
			is.Equal(gorm.chain.where.args, []interface{}{4})
		})
	}
}
