// Package storage manages the output directory.
//
// Whole-file outputs such as the user TSV are written atomically through
// a temporary file and a rename. Files that grow across runs, such as the
// follower edge list, are opened in append mode.
//
//	m, err := storage.NewManager(cfg.Output.Directory)
//	err = m.WriteAtomic("users.tsv", func(w io.Writer) error {
//		return export.WriteUsers(w, users)
//	})
package storage
