// Package files provides file system discovery and management for measurement folders.
//
// A series folder holds one subfolder per recording, each containing the rig export
// named after the folder:
//
//	Serie_A/
//	    M01/M01.steps.tracking.csv
//	    M02/M02.steps.tracking.csv
//	    plots/                      (written by the analyzer, ignored)
//
// A parent folder for batch runs holds several series folders plus plots_gesamt/.
//
// Example usage:
//
//	discovery := files.NewDiscovery("")
//	measurements, skipped, err := discovery.FindMeasurements("Serie_A", ".steps.tracking.csv")
//
//	manager := files.NewManager("", logger)
//	err = manager.CopyFile("Serie_A/plots/Serie_A_analysis.png", "plots_gesamt/Serie_A_analysis.png")
package files
