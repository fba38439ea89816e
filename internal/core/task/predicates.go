package task

// Predicate describes one entry of the fixed instance-predicate vocabulary.
// Indexed predicates have a bucket in the classification index; the others
// can only be evaluated by calling the accessor on the task.
type Predicate struct {
	Name    string
	Indexed bool
	Test    func(*Task) bool
}

// Predicates is the static predicate table. It drives matcher construction
// and the indexed-exact decision: a matcher constraint is index-accelerable
// only when the predicate it names is marked Indexed here.
var Predicates = map[string]Predicate{
	"pending":    {Name: "pending", Indexed: true, Test: (*Task).Pending},
	"starting":   {Name: "starting", Indexed: true, Test: (*Task).Starting},
	"running":    {Name: "running", Indexed: true, Test: (*Task).Running},
	"finishing":  {Name: "finishing", Indexed: true, Test: (*Task).Finishing},
	"finished":   {Name: "finished", Indexed: true, Test: (*Task).Finished},
	"success":    {Name: "success", Indexed: true, Test: (*Task).Success},
	"failed":     {Name: "failed", Indexed: true, Test: (*Task).Failed},
	"abstract":   {Name: "abstract", Indexed: false, Test: (*Task).Abstract},
	"executable": {Name: "executable", Indexed: false, Test: (*Task).Executable},
}

// StatePredicateNames lists the indexed predicate names, in a fixed order.
func StatePredicateNames() []string {
	return []string{"pending", "starting", "running", "finishing", "finished", "success", "failed"}
}

// IndexedPredicate reports whether name is part of the indexed vocabulary.
func IndexedPredicate(name string) bool {
	p, ok := Predicates[name]
	return ok && p.Indexed
}
