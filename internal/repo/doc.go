// Package repo maintains the flat local package repository.
//
// Publishing replaces the repository copy of each built package with the
// newest file from the build output, deletes superseded versions, and
// regenerates the apt metadata: the Packages index in plain, gzip and xz
// encodings, and a Release file carrying their checksums. With a signing
// key configured the Release file gets an armored detached signature;
// without one the repository is registered with apt as trusted.
//
// The repository layout is the flat one dpkg-scanpackages produces, served
// straight from the filesystem:
//
//	~/bunsen-archive/
//	    bunsen-images_10.6-1_all.deb
//	    Packages
//	    Packages.gz
//	    Packages.xz
//	    Release
//	    Release.gpg        (when signing is configured)
package repo
