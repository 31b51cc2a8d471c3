// Package paths centralizes filesystem locations: the user's home and shell
// startup file, version manager install directories, and XDG config and
// state locations for machine-setup itself.
package paths
