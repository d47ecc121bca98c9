// Package build turns source repositories into binary packages.
//
// For each repository the pipeline downloads the branch tarball from the
// hosting service, unpacks it into an exclusive workspace, validates the
// Debian packaging (quilt source format only), installs the declared build
// dependencies through the mk-build-deps helper, runs the package build, and
// moves the produced .deb files into a shared output directory.
//
// Every repository ends in exactly one of three outcomes: Built, Skipped
// (not buildable as packaged), or Failed (a pipeline step errored). A
// Skipped repository never stops the run; after a Failed one the injected
// FailurePolicy decides. Workspaces are released on every exit path.
package build
