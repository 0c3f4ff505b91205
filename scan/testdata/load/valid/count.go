package valid

// Refers to a registry constant that is only generated later.
const Count = describe0Len
