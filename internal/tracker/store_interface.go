package tracker

// Repository owns the job records. Implementations keep insertion order and
// hand out copies, never pointers into their own state.
type Repository interface {
	Add(r JobRecord) error
	Get(id int) (JobRecord, error)
	List() ([]JobRecord, error)
	SetStatus(id int, status Status) error
	Delete(id int) error
	Len() (int, error)
}
