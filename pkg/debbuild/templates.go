package debbuild

const controlTemplate = `Source: {{.package}}
Section: utils
Priority: optional
Maintainer: {{.maintainer}}
Build-Depends: debhelper (>= 12), dh-python, python3-all, python3-setuptools, python3-pip, swig, libpcsclite-dev
Standards-Version: 4.6.2
Homepage: {{.homepage}}

Package: {{.package}}
Architecture: any
Depends: ${misc:Depends}, ${python3:Depends}, python3, pcscd, libpcsclite1
Description: {{.summary}}
 {{.summary}}
`

const changelogTemplate = `{{.package}} ({{.version}}) unstable; urgency=medium

  * Package {{.version}} from the PyPI source distribution.

 -- {{.maintainer}}  {{.date}}
`

const rulesTemplate = `#!/usr/bin/make -f
export PYBUILD_NAME={{.package}}

%:
	dh $@ --with python3 --buildsystem=pybuild
`

// debianFiles are rendered into debian/ of the extracted source tree
var debianFiles = map[string]string{
	"control":       controlTemplate,
	"changelog":     changelogTemplate,
	"compat":        "12\n",
	"source/format": "3.0 (native)\n",
}

var executableFiles = map[string]string{
	"rules": rulesTemplate,
}
