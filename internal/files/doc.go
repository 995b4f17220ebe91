// Package files locates admissions input files on disk.
//
// The cleaning and profiling CLIs accept either a file or a directory as
// their input argument. Discovery resolves a directory to the most
// recently modified file in a supported format (.csv, .xlsx, .xlsm),
// skipping spreadsheet lock files.
//
// Example usage:
//
//	discovery := files.NewDiscovery(logger)
//	path, err := discovery.ResolveInput("data/")
//	if err != nil {
//		return err
//	}
//	// path names the newest admissions file in data/
package files
