package mem

/// USERSTACK is the fixed top-of-user-stack virtual address returned by
/// define_stack. The stack window occupies the 1024 pages immediately
/// below it.
const USERSTACK uintptr = 0x7f0000000000

/// STACKPAGES is the width, in pages, of the stack window below USERSTACK.
const STACKPAGES uintptr = 1024

/// USERMIN is the lowest virtual address a region may occupy.
const USERMIN uintptr = 0x1000
