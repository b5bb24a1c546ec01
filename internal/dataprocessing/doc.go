// Package dataprocessing reads the measurement files written by the pull-out test rig.
//
// # File Layout
//
// A rig export is semicolon separated text with a header row and a decimal comma.
// Displacement [mm] sits in column 7 and force [kN] in column 8 (zero-based). Other
// columns are ignored. Recordings re-saved as .xlsx keep the same column layout on
// their first sheet.
//
// # Usage
//
//	samples, err := dataprocessing.ParseRecordingFile(ctx, path, dataprocessing.DefaultParseOptions())
//	if err != nil {
//	    return err
//	}
//	idx, err := analyzer.LoadNamed(filepath.Base(path), samples)
//
// # Error Handling
//
// Malformed rows produce a DATA_FORMAT AppError carrying the row, column and path in its
// context. A missing file is NOT_FOUND, any other I/O failure is STORAGE.
package dataprocessing
