// Package bootstrap composes cfn-init metadata and the user-data script that
// installs and runs it.
//
// A Builder is bound to one resource. Every operation reads the resource's
// Metadata attribute, works on a private copy, and writes the copy back when
// it completes, so a failed operation leaves the stored mapping untouched.
//
// The generated keys (AWS::CloudFormation::Init, configSets, commands, files,
// packages, AWS::CloudFormation::Authentication) follow the cfn-init schema
// and must not be renamed.
package bootstrap
